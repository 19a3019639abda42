package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/odds-band-dashboard/internal/odds-dashboard/dashboard"
	"github.com/radieske/odds-band-dashboard/pkg/contracts/events"
)

// KafkaPublisher encapsula o writer Kafka e o logger.
type KafkaPublisher struct {
	writer *kafka.Writer
	log    *zap.Logger
	source string
}

// NewKafkaPublisher cria um publisher para o tópico de refreshes.
// O writer usa timeouts curtos: o refresh não deve esperar o Kafka indefinidamente.
func NewKafkaPublisher(brokers []string, topic, source string, log *zap.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
		ReadTimeout:            5 * time.Second,
		WriteTimeout:           5 * time.Second,
	}
	return &KafkaPublisher{writer: writer, log: log, source: source}
}

// Event converte o snapshot no contrato publicado
func Event(snap dashboard.Snapshot, source string) events.OddsBandRefreshed {
	recs := make([]events.BetRecord, len(snap.Records))
	for i, r := range snap.Records {
		recs[i] = events.BetRecord{
			Matchup:      r.Matchup,
			Team:         r.Team,
			Odds:         r.Odds,
			Bookmaker:    r.Bookmaker,
			League:       r.League,
			CommenceTime: r.CommenceTime,
		}
	}
	return events.OddsBandRefreshed{
		RefreshID:  snap.RefreshID,
		FetchedAt:  snap.FetchedAt,
		RangeLow:   snap.Band.Low,
		RangeHigh:  snap.Band.High,
		SportKeys:  snap.SportKeys,
		FailedKeys: snap.FailedKeys,
		Records:    recs,
		Source:     source,
	}
}

// Publish serializa o evento em JSON e envia uma mensagem para o tópico configurado.
// A chave da mensagem é o RefreshID.
func (p *KafkaPublisher) Publish(ctx context.Context, snap dashboard.Snapshot) error {
	value, err := json.Marshal(Event(snap, p.source))
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(snap.RefreshID),
		Value: value,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error("failed to publish odds band refresh", zap.Error(err))
		return err
	}

	p.log.Debug("published odds band refresh", zap.String("refresh_id", snap.RefreshID))
	return nil
}

// Close finaliza o writer e libera recursos associados.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
