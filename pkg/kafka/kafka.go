package kafka

import (
	"log"

	"github.com/IBM/sarama"
)

// Producer 生产者
type Producer struct {
	asyncProducer sarama.AsyncProducer
}

// InitProducer 初始化生产者
// 事件是尽力而为的通知，不等待确认，错误通道持续排空避免生产者阻塞
func InitProducer(brokers []string) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = false
	config.Producer.Return.Errors = true
	config.Producer.Partitioner = sarama.NewHashPartitioner
	producer, err := sarama.NewAsyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}

	go drainErrors(producer.Errors())

	return &Producer{asyncProducer: producer}, nil
}

// drainErrors 排空异步生产者的错误通道，通道关闭后返回
func drainErrors(errs <-chan *sarama.ProducerError) {
	for err := range errs {
		log.Printf("kafka: failed to produce message to topic %s: %v", err.Msg.Topic, err.Err)
	}
}

// SendMessage 发送消息
func (p *Producer) SendMessage(topic string, key, value []byte) error {
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.ByteEncoder(key),
		Value: sarama.ByteEncoder(value),
	}
	p.asyncProducer.Input() <- msg
	return nil
}

// Close 关闭生产者
func (p *Producer) Close() error {
	return p.asyncProducer.Close()
}
