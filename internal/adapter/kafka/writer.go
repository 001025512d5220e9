package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/oes-employment-etl/internal/config"
	"github.com/couchcryptid/oes-employment-etl/internal/domain"
)

// messageWriter is the subset of kafkago.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes each state row of a finalized table as one Kafka message.
// It implements pipeline.Sink.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes every row and sends them in a single WriteMessages call.
func (w *Writer) Publish(ctx context.Context, snap domain.Snapshot) error {
	rows, _ := snap.Table.Shape()
	if rows == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, rows)
	for i := range rows {
		msg, err := serializeRow(snap, i)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish state rows: %w", err)
	}
	w.logger.Info("state rows published", "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// StateRow is the message value for one table row.
type StateRow struct {
	StateCode   string     `json:"state_code"`
	State       string     `json:"state"`
	Years       string     `json:"years"`
	FinalizedAt time.Time  `json:"finalized_at"`
	Provisional bool       `json:"provisional"`
	Cells       []RowValue `json:"cells"`
}

// RowValue is one occupation estimate within a StateRow. Value is set only
// for numeric cells.
type RowValue struct {
	Occupation string   `json:"occupation"`
	Status     string   `json:"status"`
	Text       string   `json:"text"`
	Value      *float64 `json:"value,omitempty"`
}

// serializeRow marshals row i of the snapshot table into a Kafka message
// keyed by state code, so a state's rows from successive runs share a
// partition.
func serializeRow(snap domain.Snapshot, i int) (kafkago.Message, error) {
	state := snap.Table.States()[i]
	occupations := snap.Table.Occupations()
	cells := snap.Table.RowCells(i)

	row := StateRow{
		StateCode:   state.Code,
		State:       state.Name,
		Years:       snap.Years.String(),
		FinalizedAt: snap.Table.FinalizedAt().UTC(),
		Cells:       make([]RowValue, len(cells)),
	}
	for j, c := range cells {
		v := RowValue{Occupation: occupations[j], Status: c.State.String(), Text: c.String()}
		if c.State == domain.CellValue {
			v.Value = &c.Value
		}
		if c.State == domain.CellPending {
			row.Provisional = true
		}
		row.Cells[j] = v
	}

	data, err := json.Marshal(row)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize state row: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(state.Code),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "state", Value: []byte(state.Code)},
			{Key: "finalized_at", Value: []byte(row.FinalizedAt.Format(time.RFC3339))},
		},
	}, nil
}
