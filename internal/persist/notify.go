package persist

// Event types published by the store.
const (
	EventDocumentSaved    = "document.saved"
	EventDocumentsCleared = "documents.cleared"
	EventSnapshotCreated  = "snapshot.created"
	EventSnapshotRestored = "snapshot.restored"
)

// Event is a fire-and-forget notification about a storage change.
type Event struct {
	Type     string `json:"type"`
	Key      string `json:"key,omitempty"`
	ByteSize int    `json:"byteSize,omitempty"`
	ID       string `json:"id,omitempty"`
}

// Notifier receives store events. Notify must not block.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Event)

// Notify implements Notifier.
func (f NotifierFunc) Notify(e Event) { f(e) }

type nopNotifier struct{}

func (nopNotifier) Notify(Event) {}
