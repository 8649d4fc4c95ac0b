package mq

import (
	"log"

	"crowdfund/internal/config"

	"github.com/IBM/sarama"
)

// Producer Kafka 同步生产者
type Producer struct {
	producer sarama.SyncProducer
}

// InitKafka 初始化 Kafka 生产者
func InitKafka(cfg *config.KafkaConfig) *Producer {
	kafkaConfig := sarama.NewConfig()
	kafkaConfig.Producer.RequiredAcks = sarama.WaitForAll // 等待所有副本确认
	kafkaConfig.Producer.Retry.Max = 3                    // 重试次数
	kafkaConfig.Producer.Return.Successes = true          // 返回成功消息

	producer, err := sarama.NewSyncProducer(cfg.Brokers, kafkaConfig)
	if err != nil {
		log.Fatalf("创建 Kafka 生产者失败: %v", err)
	}

	log.Println("Kafka 生产者创建成功")
	return NewProducer(producer)
}

func NewProducer(producer sarama.SyncProducer) *Producer {
	return &Producer{producer: producer}
}

// SendMessage 发送消息到 Kafka
func (p *Producer) SendMessage(topic, key, value string) error {
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.StringEncoder(value),
	}

	_, _, err := p.producer.SendMessage(msg)
	return err
}

// Close 关闭 Kafka 生产者
func (p *Producer) Close() {
	if p.producer != nil {
		if err := p.producer.Close(); err != nil {
			log.Printf("关闭 Kafka 生产者失败: %v", err)
		}
	}
}

// LogSender 未启用 Kafka 时使用，仅记录日志
type LogSender struct{}

func (LogSender) SendMessage(topic, key, value string) error {
	log.Printf("[LogSender] topic=%s key=%s payload=%s", topic, key, value)
	return nil
}
