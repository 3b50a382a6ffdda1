package dal

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/streadway/amqp"

	"bill-gateway-api/internal/config"
)

// 账单事件拓扑
const (
	ExchangeBillEvents   = "bill_events"
	QueueBillStatusCheck = "bill_status_check"
	RoutingKeyBillPaid   = "bill.paid"
)

var (
	mqConn    *amqp.Connection
	mqChannel *amqp.Channel

	mu sync.Mutex

	// 用 NotifyClose 事件判断是否已关闭
	connClosedCh chan *amqp.Error
	chClosedCh   chan *amqp.Error

	reconnecting bool
	closing      bool
)

// InitRabbitMQ 首次连接并声明交换机与队列
func InitRabbitMQ() {
	if err := connect(); err != nil {
		log.Fatalf("[RabbitMQ] init failed: %v", err)
	}
}

// DeclareTopology bill_events(topic) + bill_status_check <- bill.paid
func DeclareTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(ExchangeBillEvents, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("exchange declare %s: %w", ExchangeBillEvents, err)
	}
	if _, err := ch.QueueDeclare(QueueBillStatusCheck, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare %s: %w", QueueBillStatusCheck, err)
	}
	if err := ch.QueueBind(QueueBillStatusCheck, RoutingKeyBillPaid, ExchangeBillEvents, false, nil); err != nil {
		return fmt.Errorf("queue bind %s: %w", QueueBillStatusCheck, err)
	}
	return nil
}

func connect() error {
	mu.Lock()
	defer mu.Unlock()

	if isConnAlive() && isChanAlive() {
		return nil
	}

	conn, err := amqp.Dial(config.C.RabbitMQ.URL)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	if err := DeclareTopology(ch); err != nil {
		_ = conn.Close()
		return err
	}
	if pc := config.C.RabbitMQ.PrefetchCount; pc > 0 {
		if err := ch.Qos(pc, 0, false); err != nil {
			log.Printf("[RabbitMQ] set QoS failed: %v", err)
		}
	}

	mqConn = conn
	mqChannel = ch
	connClosedCh = conn.NotifyClose(make(chan *amqp.Error, 1))
	chClosedCh = ch.NotifyClose(make(chan *amqp.Error, 1))
	log.Printf("[RabbitMQ] connected, exchange=%s queue=%s", ExchangeBillEvents, QueueBillStatusCheck)

	go watchClose(connClosedCh, chClosedCh)
	return nil
}

// 监听关闭事件，触发重连
func watchClose(connCh, chCh chan *amqp.Error) {
	select {
	case err, ok := <-connCh:
		if ok {
			log.Printf("[RabbitMQ] connection closed: %v", err)
		}
	case err, ok := <-chCh:
		if ok {
			log.Printf("[RabbitMQ] channel closed: %v", err)
		}
	}
	reconnect()
}

// 阻塞重试直至成功
func reconnect() {
	mu.Lock()
	if reconnecting || closing {
		mu.Unlock()
		return
	}
	reconnecting = true
	mu.Unlock()

	defer func() {
		mu.Lock()
		reconnecting = false
		mu.Unlock()
	}()

	for {
		mu.Lock()
		stop := closing
		mu.Unlock()
		if stop {
			return
		}
		log.Println("[RabbitMQ] reconnecting...")
		if err := connect(); err == nil {
			log.Println("[RabbitMQ] reconnected")
			return
		}
		time.Sleep(5 * time.Second)
	}
}

func isConnAlive() bool {
	if mqConn == nil || connClosedCh == nil {
		return false
	}
	select {
	case <-connClosedCh:
		return false
	default:
		return true
	}
}

func isChanAlive() bool {
	if mqChannel == nil || chClosedCh == nil {
		return false
	}
	select {
	case <-chClosedCh:
		return false
	default:
		return true
	}
}

// GetChannel 通道断开时先重连
func GetChannel() *amqp.Channel {
	mu.Lock()
	alive := isChanAlive()
	ch := mqChannel
	mu.Unlock()
	if alive {
		return ch
	}
	reconnect()
	mu.Lock()
	defer mu.Unlock()
	return mqChannel
}

// CloseRabbitMQ 进程退出时关闭连接
func CloseRabbitMQ() {
	mu.Lock()
	defer mu.Unlock()
	closing = true
	if mqConn != nil {
		_ = mqConn.Close()
	}
}
