package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"settlement-service/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
)

// SettlementPublisher publishes settlement lifecycle events to RabbitMQ. It
// implements services.SettlementNotifier; publish failures are logged and
// swallowed so messaging never affects settlement outcomes.
type SettlementPublisher struct {
	conn *RabbitMQConnection
}

func NewSettlementPublisher(conn *RabbitMQConnection) *SettlementPublisher {
	return &SettlementPublisher{conn: conn}
}

func (p *SettlementPublisher) publish(ctx context.Context, ev SettlementEvent) error {
	_, err := p.conn.Channel.QueueDeclare(
		SettlementQueue, // queue name
		true,            // durable
		false,           // delete when unused
		false,           // exclusive
		false,           // no-wait
		nil,             // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal settlement event: %w", err)
	}

	err = p.conn.Channel.PublishWithContext(
		ctx,
		"",              // exchange
		SettlementQueue, // routing key (queue name)
		false,           // mandatory
		false,           // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish settlement event: %w", err)
	}
	return nil
}

func (p *SettlementPublisher) NotifyApplicationDecided(ctx context.Context, policy *models.PolicyInstance, decision models.ApplicationDecision) {
	ev := SettlementEvent{
		Type:       EventApplicationDecided,
		PolicyID:   policy.ID.String(),
		HazardID:   policy.HazardID,
		HolderID:   policy.HolderID,
		State:      string(policy.State),
		Decision:   string(decision.Status),
		Reasons:    decision.Reasons,
		OccurredAt: time.Now(),
	}
	if err := p.publish(ctx, ev); err != nil {
		slog.Error("failed to publish application event", "policy_id", policy.ID, "error", err)
	}
}

func (p *SettlementPublisher) NotifyClaimDecided(ctx context.Context, policy *models.PolicyInstance, decision models.ClaimDecision) {
	ev := SettlementEvent{
		Type:         EventClaimDecided,
		PolicyID:     policy.ID.String(),
		HazardID:     policy.HazardID,
		HolderID:     policy.HolderID,
		State:        string(policy.State),
		Decision:     string(decision.Status),
		Reasons:      decision.Reasons,
		PayoutAmount: decision.PayoutAmount,
		OccurredAt:   time.Now(),
	}
	if err := p.publish(ctx, ev); err != nil {
		slog.Error("failed to publish claim event", "policy_id", policy.ID, "error", err)
	}
}

func (p *SettlementPublisher) NotifyPayoutProcessed(ctx context.Context, policy *models.PolicyInstance) {
	ev := SettlementEvent{
		Type:       EventPayoutProcessed,
		PolicyID:   policy.ID.String(),
		HazardID:   policy.HazardID,
		HolderID:   policy.HolderID,
		State:      string(policy.State),
		OccurredAt: time.Now(),
	}
	if policy.Claim != nil {
		ev.PayoutAmount = policy.Claim.PayoutAmount
	}
	if err := p.publish(ctx, ev); err != nil {
		slog.Error("failed to publish payout event", "policy_id", policy.ID, "error", err)
	}
}
