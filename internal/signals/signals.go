// Package signals dispatches model lifecycle notifications to receivers
// registered by the apps at startup.
package signals

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/localnerve/docsdb/internal/models"
)

// Receiver handles one signal delivery
type Receiver[T any] func(ctx context.Context, event T) error

type registration[T any] struct {
	dispatchUID string
	receiver    Receiver[T]
}

// Signal is a named, typed notification with an ordered list of receivers.
// Connecting twice with the same dispatch UID replaces the first receiver.
type Signal[T any] struct {
	name      string
	mu        sync.RWMutex
	receivers []registration[T]
}

// New creates a signal
func New[T any](name string) *Signal[T] {
	return &Signal[T]{name: name}
}

// Name returns the signal name
func (s *Signal[T]) Name() string {
	return s.name
}

// Connect registers a receiver under dispatchUID
func (s *Signal[T]) Connect(dispatchUID string, receiver Receiver[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, reg := range s.receivers {
		if reg.dispatchUID == dispatchUID {
			s.receivers[i].receiver = receiver
			return
		}
	}
	s.receivers = append(s.receivers, registration[T]{dispatchUID: dispatchUID, receiver: receiver})
}

// Disconnect removes the receiver registered under dispatchUID
func (s *Signal[T]) Disconnect(dispatchUID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, reg := range s.receivers {
		if reg.dispatchUID == dispatchUID {
			s.receivers = append(s.receivers[:i], s.receivers[i+1:]...)
			return true
		}
	}
	return false
}

// Send delivers event to every receiver in connection order. A failing
// receiver does not stop delivery; the errors are logged and returned.
func (s *Signal[T]) Send(ctx context.Context, event T) []error {
	s.mu.RLock()
	receivers := make([]registration[T], len(s.receivers))
	copy(receivers, s.receivers)
	s.mu.RUnlock()

	var errs []error
	for _, reg := range receivers {
		if err := reg.receiver(ctx, event); err != nil {
			logrus.WithFields(logrus.Fields{
				"signal":       s.name,
				"dispatch_uid": reg.dispatchUID,
			}).WithError(err).Error("signal receiver failed")
			errs = append(errs, err)
		}
	}
	return errs
}

// ModelEvent carries the instance a signal is about and the database handle
// that produced it. Inside a GORM callback DB is the running transaction.
type ModelEvent[T any] struct {
	DB       *gorm.DB
	Instance T
	Created  bool
}

var (
	// PostDocumentTypeSave fires after a DocumentType row is written
	PostDocumentTypeSave = New[ModelEvent[*models.DocumentType]]("post_save.document_type")

	// PostVersionUpload fires after a new DocumentVersion and its pages exist
	PostVersionUpload = New[ModelEvent[*models.DocumentVersion]]("post_version_upload")

	// PostDocumentVersionParsing fires after a version was parsed successfully
	PostDocumentVersionParsing = New[ModelEvent[*models.DocumentVersion]]("post_document_version_parsing")
)
