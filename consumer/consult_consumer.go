package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"modu-consult/models"
	"modu-consult/notifier"
	"modu-consult/utils"
)

const consultIndex = "consults"

type ConsultEvent struct {
	Event string         `json:"event"`
	Data  models.Consult `json:"data"`
}

// ConsultConsumer reads lifecycle events off Kafka and fans them out to the
// notifier and Elasticsearch. Every handler swallows its own errors: delivery
// is best-effort and nothing here is retried or reported back.
type ConsultConsumer struct {
	notify   notifier.Notifier
	es       utils.ElasticsearchClient
	reader   *kafka.Reader
	shutdown chan struct{}
}

func NewConsultConsumer(broker string, notify notifier.Notifier, es utils.ElasticsearchClient) *ConsultConsumer {
	return &ConsultConsumer{
		notify: notify,
		es:     es,
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: []string{broker},
			Topic:   "consult_events",
			GroupID: "consult-group",
			MaxWait: 10 * time.Second,
		}),
		shutdown: make(chan struct{}),
	}
}

func (c *ConsultConsumer) Start(ctx context.Context) {
	log.Println("Starting Kafka consumer...")

	go func() {
		for {
			select {
			case <-c.shutdown:
				return
			default:
				c.processMessages(ctx)
			}
		}
	}()
}

func (c *ConsultConsumer) Stop() {
	close(c.shutdown)
	if err := c.reader.Close(); err != nil {
		log.Printf("Error closing Kafka reader: %v", err)
	}
}

func (c *ConsultConsumer) processMessages(ctx context.Context) {
	msg, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if err == context.Canceled {
			return
		}
		log.Printf("Kafka read error: %v (will retry)", err)
		time.Sleep(5 * time.Second)
		return
	}

	c.handleMessage(ctx, msg.Value)
}

func (c *ConsultConsumer) handleMessage(ctx context.Context, value []byte) {
	var event ConsultEvent
	if err := json.Unmarshal(value, &event); err != nil {
		log.Printf("Failed to unmarshal Kafka message: %v", err)
		return
	}

	switch event.Event {
	case "consult_created":
		c.handleConsultCreated(ctx, event.Data)
	case "consult_status_updated":
		c.handleConsultStatusUpdated(ctx, event.Data)
	case "consult_deleted":
		c.handleConsultDeleted(ctx, event.Data.ID)
	default:
		log.Printf("Unknown event type: %s", event.Event)
	}
}

func (c *ConsultConsumer) handleConsultCreated(ctx context.Context, consult models.Consult) {
	if c.notify != nil {
		if err := c.notify.Notify("새 상담 신청", FormatConsultMessage(consult)); err != nil {
			log.Printf("Failed to send notification: %v", err)
		}
	}

	if c.es != nil {
		if err := c.es.IndexConsult(ctx, consultIndex, fmt.Sprintf("%d", consult.ID), consult); err != nil {
			log.Printf("Failed to index consult in Elasticsearch: %v", err)
		}
	}

	log.Printf("Processed consult_created event for consult ID %d", consult.ID)
}

func (c *ConsultConsumer) handleConsultStatusUpdated(ctx context.Context, consult models.Consult) {
	if c.es != nil {
		if err := c.es.IndexConsult(ctx, consultIndex, fmt.Sprintf("%d", consult.ID), consult); err != nil {
			log.Printf("Failed to update consult in Elasticsearch: %v", err)
		}
	}

	log.Printf("Processed consult_status_updated event for consult ID %d", consult.ID)
}

func (c *ConsultConsumer) handleConsultDeleted(ctx context.Context, consultID uint) {
	if c.es != nil {
		if err := c.es.DeleteConsult(ctx, consultIndex, fmt.Sprintf("%d", consultID)); err != nil {
			log.Printf("Failed to delete consult from Elasticsearch: %v", err)
		}
	}

	log.Printf("Processed consult_deleted event for consult ID %d", consultID)
}

// FormatConsultMessage renders the alert body for a new submission.
func FormatConsultMessage(consult models.Consult) string {
	return fmt.Sprintf(
		"이름: %s\n연락처: %s\n목표: %s\n학력: %s\n상담 방법: %s\n신청 시각: %s",
		consult.Name,
		consult.Phone,
		strings.Join(consult.Goals, ", "),
		consult.Education,
		consult.ContactMethod,
		consult.CreatedAt.Format("2006-01-02 15:04"),
	)
}
