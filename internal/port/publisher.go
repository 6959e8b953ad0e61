package port

import "github.com/olyamironova/auction-engine/internal/domain"

// Publisher is the notification sink. Publish must not block.
type Publisher interface {
	Publish(ev domain.Event)
}
