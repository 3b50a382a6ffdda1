package mq

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"

	"bill-gateway-api/internal/dto"
	"bill-gateway-api/internal/service"
)

const (
	retryHeader = "x-retry-count"
	maxRetry    = 3
)

// StatusChecker 缴费后确认账单状态
type StatusChecker interface {
	CheckBillStatus(ctx context.Context, p service.CheckBillStatusParams) (map[string]any, error)
}

// Consumer amqp.Channel 中消费所需部分
type Consumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// StatusCheckConsumer 消费 bill.paid 事件并调用状态查询，失败重投到原队列
type StatusCheckConsumer struct {
	queue   string
	checker StatusChecker
	retry   func() Channel
	timeout time.Duration
	log     *logrus.Logger
}

func NewStatusCheckConsumer(queue string, checker StatusChecker, retry func() Channel, timeout time.Duration, log *logrus.Logger) *StatusCheckConsumer {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &StatusCheckConsumer{queue: queue, checker: checker, retry: retry, timeout: timeout, log: log}
}

// Start 阻塞消费直到 ctx 结束或投递通道关闭
func (c *StatusCheckConsumer) Start(ctx context.Context, ch Consumer) error {
	msgs, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}
	c.log.WithField("queue", c.queue).Info("[MQ-StatusCheck] consumer started")
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				c.log.WithField("queue", c.queue).Warn("[MQ-StatusCheck] delivery channel closed")
				return nil
			}
			go c.handle(ctx, d)
		}
	}
}

func (c *StatusCheckConsumer) handle(ctx context.Context, d amqp.Delivery) {
	var evt dto.BillEvent
	if err := json.Unmarshal(d.Body, &evt); err != nil {
		c.log.WithError(err).Error("[MQ-StatusCheck] unmarshal event failed")
		_ = d.Nack(false, false)
		return
	}
	entry := c.log.WithFields(logrus.Fields{"ref_id": evt.RefID, "bllr_id": evt.BllrID})
	if evt.Type != dto.EventBillPaid || evt.RefID == "" {
		entry.WithField("type", evt.Type).Debug("[MQ-StatusCheck] skip event")
		_ = d.Ack(false)
		return
	}

	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	_, err := c.checker.CheckBillStatus(cctx, service.CheckBillStatusParams{RefID: evt.RefID, BillerID: evt.BllrID})
	if err == nil {
		_ = d.Ack(false)
		entry.Info("[MQ-StatusCheck] status confirmed")
		return
	}

	entry.WithError(err).Warn("[MQ-StatusCheck] check bill status failed")
	count := retryCount(d.Headers)
	if count < maxRetry {
		if rerr := c.requeue(d, count+1); rerr != nil {
			entry.WithError(rerr).Error("[MQ-StatusCheck] requeue failed")
		} else {
			entry.WithField("attempt", count+1).Info("[MQ-StatusCheck] requeued")
		}
	} else {
		entry.Error("[MQ-StatusCheck] max retry reached")
	}
	_ = d.Nack(false, false)
}

func (c *StatusCheckConsumer) requeue(d amqp.Delivery, count int) error {
	ch := c.retry()
	if ch == nil {
		return ErrChannelUnavailable
	}
	return ch.Publish("", c.queue, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Headers:      amqp.Table{retryHeader: int32(count)},
		Body:         d.Body,
	})
}

func retryCount(h amqp.Table) int {
	switch v := h[retryHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
