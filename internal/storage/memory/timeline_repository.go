package memory

import (
	"sort"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// timelineRepository хранит события заказа в снимке транзакции.
type timelineRepository struct {
	tx *memTx
}

// Append добавляет событие, сохраняя хронологический порядок.
func (r timelineRepository) Append(event domain.TimelineEvent) error {
	if err := r.tx.writable(); err != nil {
		return err
	}
	if event.Occurred.IsZero() {
		event.Occurred = r.tx.now()
	}

	events := append(r.tx.st.timeline[event.OrderID], event)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Occurred.Before(events[j].Occurred)
	})
	r.tx.st.timeline[event.OrderID] = events
	return nil
}

// List возвращает события заказа в хронологическом порядке.
func (r timelineRepository) List(orderID string) ([]domain.TimelineEvent, error) {
	events := r.tx.st.timeline[orderID]
	out := make([]domain.TimelineEvent, len(events))
	copy(out, events)
	return out, nil
}

var _ domain.TimelineRepository = timelineRepository{}
