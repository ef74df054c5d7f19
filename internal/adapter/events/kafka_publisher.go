package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/rocketshop/shopcart/internal/core/domain"
)

const TopicOrderPlaced = `order-service.order-placed`

// OrderPlacedEvent is the wire shape downstream consumers see.
type OrderPlacedEvent struct {
	OrderID   string           `json:"order_id"`
	UserID    string           `json:"user_id"`
	Total     string           `json:"total"`
	Items     []OrderEventItem `json:"items"`
	CreatedAt time.Time        `json:"created_at"`
}

type OrderEventItem struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	Price       string `json:"price"`
}

type KafkaPublisher struct {
	client *kgo.Client
}

func NewKafkaPublisher(brokers []string) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProduceRequestTimeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaPublisher{client: client}, nil
}

func (p *KafkaPublisher) OrderPlaced(ctx context.Context, o *domain.Order) error {
	event := OrderPlacedEvent{
		OrderID:   o.ID,
		UserID:    o.UserID,
		Total:     o.Total.String(),
		CreatedAt: o.CreatedAt,
	}
	for _, item := range o.Items {
		event.Items = append(event.Items, OrderEventItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price.String(),
		})
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	record := &kgo.Record{
		Topic: TopicOrderPlaced,
		Key:   []byte(o.ID),
		Value: payload,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce order placed: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() {
	p.client.Close()
}
