package models

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

type Repository interface {
	CreateConsult(consult *Consult) error
	ListConsults() ([]Consult, error)
	GetConsultByID(id uint) (*Consult, error)
	UpdateConsultStatus(id uint, status string) (*Consult, error)
	DeleteConsult(id uint) error
	CountConsults() (int64, error)
	ListConsultsCreatedBetween(from, to time.Time) ([]Consult, error)
	Close() error
}

type PostgresRepository struct {
	db *gorm.DB
}

// PostgresConfig holds the connection settings for NewPostgresRepository.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

func NewPostgresRepository(cfg PostgresConfig) (*PostgresRepository, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		cfg.Host, cfg.User, cfg.Password, cfg.DBName, cfg.Port,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&Consult{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) CreateConsult(consult *Consult) error {
	return r.db.Create(consult).Error
}

func (r *PostgresRepository) ListConsults() ([]Consult, error) {
	var consults []Consult
	if err := r.db.Order("created_at DESC").Find(&consults).Error; err != nil {
		return nil, err
	}
	return consults, nil
}

func (r *PostgresRepository) GetConsultByID(id uint) (*Consult, error) {
	var consult Consult
	if err := r.db.First(&consult, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &consult, nil
}

// UpdateConsultStatus replaces the status field only. An id with no matching
// row reports zero rows affected, which is a failure, not a silent no-op.
func (r *PostgresRepository) UpdateConsultStatus(id uint, status string) (*Consult, error) {
	res := r.db.Model(&Consult{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetConsultByID(id)
}

func (r *PostgresRepository) DeleteConsult(id uint) error {
	res := r.db.Delete(&Consult{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) CountConsults() (int64, error) {
	var count int64
	if err := r.db.Model(&Consult{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresRepository) ListConsultsCreatedBetween(from, to time.Time) ([]Consult, error) {
	var consults []Consult
	err := r.db.
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at DESC").
		Find(&consults).Error
	if err != nil {
		return nil, err
	}
	return consults, nil
}

func (r *PostgresRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
