package main

import (
	"context"

	"go.uber.org/zap"

	config "github.com/NordCoder/Linkerus/internal/config/link-checker"
	"github.com/NordCoder/Linkerus/internal/repository/kafka"
)

func initEventsProducer(ctx context.Context, cfg *config.Config, logger *zap.Logger) *kafka.Producer {
	if !cfg.Kafka.Enable {
		return nil
	}
	return kafka.BootstrapProducer(ctx, cfg.Kafka.Brokers, cfg.Kafka.EventsTopic, logger)
}

func initRequestsConsumer(ctx context.Context, cfg *config.Config, logger *zap.Logger) *kafka.Consumer {
	if !cfg.Kafka.Enable {
		return nil
	}
	return kafka.BootstrapConsumer(ctx, &kafka.ConsumerConfig{
		Brokers: cfg.Kafka.Brokers,
		GroupID: cfg.Kafka.GroupID,
		Topic:   cfg.Kafka.RequestsTopic,
		Logger:  logger,
	}, logger)
}
