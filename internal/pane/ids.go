package pane

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// PaneID identifies a pane for the lifetime of the process.
type PaneID uint64

func (id PaneID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

var lastPaneID atomic.Uint64

// NextPaneID allocates a new pane id. Ids are never reused.
func NextPaneID() PaneID {
	return PaneID(lastPaneID.Add(1))
}

// DomainID identifies the domain that created a pane. It is used for
// routing only.
type DomainID uuid.UUID

// NewDomainID returns a random domain id.
func NewDomainID() DomainID {
	return DomainID(uuid.New())
}

func (id DomainID) String() string {
	return uuid.UUID(id).String()
}
