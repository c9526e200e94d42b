package events

import (
	"context"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"kitchen_inventory_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConfirmChannel numbers deliveries from 1 like a channel in confirm mode.
type fakeConfirmChannel struct {
	nextSeq   uint64
	published []amqp.Publishing
	onPublish func(tag uint64)
	closed    bool
}

func (c *fakeConfirmChannel) PublishWithContext(_ context.Context, _, _ string, _, _ bool, msg amqp.Publishing) error {
	tag := c.nextSeq
	c.nextSeq++
	c.published = append(c.published, msg)
	if c.onPublish != nil {
		c.onPublish(tag)
	}
	return nil
}

func (c *fakeConfirmChannel) GetNextPublishSeqNo() uint64 { return c.nextSeq }
func (c *fakeConfirmChannel) Close() error                { c.closed = true; return nil }

func newTestRabbitPublisher() (*RabbitPublisher, *fakeConfirmChannel, chan amqp.Confirmation) {
	ch := &fakeConfirmChannel{nextSeq: 1}
	acks := make(chan amqp.Confirmation, confirmBuffer)
	return &RabbitPublisher{ch: ch, acks: acks}, ch, acks
}

func TestRabbitPublisher_AckConfirmsPublish(t *testing.T) {
	p, ch, acks := newTestRabbitPublisher()
	ch.onPublish = func(tag uint64) { acks <- amqp.Confirmation{DeliveryTag: tag, Ack: true} }

	err := p.PublishCookingEvent(context.Background(), models.CookingEvent{ID: 7, MenuID: 1, Quantity: 1})
	require.NoError(t, err)
	require.Len(t, ch.published, 1)
	assert.Equal(t, "7", ch.published[0].MessageId)
	assert.Equal(t, "application/json", ch.published[0].ContentType)
}

func TestRabbitPublisher_LateAckIsNotCreditedToNextPublish(t *testing.T) {
	p, ch, acks := newTestRabbitPublisher()

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	err := p.PublishCookingEvent(cancelled, models.CookingEvent{ID: 1})
	require.ErrorIs(t, err, context.Canceled)

	// The first delivery is acked only after its publisher gave up.
	acks <- amqp.Confirmation{DeliveryTag: 1, Ack: true}
	ch.onPublish = func(tag uint64) { acks <- amqp.Confirmation{DeliveryTag: tag, Ack: false} }

	err = p.PublishCookingEvent(context.Background(), models.CookingEvent{ID: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NACK")
	assert.Contains(t, err.Error(), "cooking event 2")
}

func TestRabbitPublisher_SkipsStaleConfirmsBeforeAck(t *testing.T) {
	p, ch, acks := newTestRabbitPublisher()
	ch.nextSeq = 4
	acks <- amqp.Confirmation{DeliveryTag: 2, Ack: false}
	acks <- amqp.Confirmation{DeliveryTag: 3, Ack: false}
	ch.onPublish = func(tag uint64) { acks <- amqp.Confirmation{DeliveryTag: tag, Ack: true} }

	err := p.PublishCookingEvent(context.Background(), models.CookingEvent{ID: 9})
	assert.NoError(t, err)
	assert.Empty(t, acks)
}

func TestRabbitPublisher_ClosedConfirmChannel(t *testing.T) {
	p, _, acks := newTestRabbitPublisher()
	close(acks)

	err := p.PublishCookingEvent(context.Background(), models.CookingEvent{ID: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "confirm channel closed")
}

func TestRabbitPublisher_TimesOutWithoutConfirm(t *testing.T) {
	p, _, _ := newTestRabbitPublisher()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := p.PublishCookingEvent(ctx, models.CookingEvent{ID: 4})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRabbitPublisher_CloseWithoutConnection(t *testing.T) {
	p, ch, _ := newTestRabbitPublisher()
	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}
