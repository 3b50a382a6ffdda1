package mq

import (
	"encoding/json"
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

// Channel amqp.Channel 中发布所需部分
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

var ErrChannelUnavailable = errors.New("rabbitmq channel unavailable")

// Publisher 账单事件发布到 topic 交换机，路由键即事件类型
type Publisher struct {
	channel  func() Channel
	exchange string
	log      *logrus.Logger
}

func NewPublisher(channel func() Channel, exchange string, log *logrus.Logger) *Publisher {
	return &Publisher{channel: channel, exchange: exchange, log: log}
}

func (p *Publisher) Publish(topic string, msg any) error {
	ch := p.channel()
	if ch == nil {
		return ErrChannelUnavailable
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	err = ch.Publish(p.exchange, topic, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Body:         b,
	})
	if err != nil {
		p.log.WithError(err).WithField("topic", topic).Error("[MQ] publish failed")
		return err
	}
	p.log.WithField("topic", topic).Debug("[MQ] event published")
	return nil
}
