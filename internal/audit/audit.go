package audit

import (
	"fmt"
	"sync"
)

var (
	// globalWriter is the default audit writer.
	globalWriter Writer = NopWriter{}
	globalMu     sync.RWMutex

	// enabled tracks whether audit logging is active.
	enabled bool
)

// Init initializes the global audit logger with the given writer.
// Must be called before any audit events are logged.
func Init(w Writer) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if w == nil {
		globalWriter = NopWriter{}
		enabled = false
		return nil
	}

	globalWriter = w
	enabled = true
	return nil
}

// InitFile initializes the global audit logger with a file writer.
// An empty path disables audit logging.
func InitFile(path string) error {
	if path == "" {
		return Init(nil)
	}

	w, err := NewFileWriter(path)
	if err != nil {
		return err
	}

	return Init(w)
}

// Close closes the global audit writer.
// Should be called when the application exits.
func Close() error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalWriter != nil {
		err := globalWriter.Close()
		globalWriter = NopWriter{}
		enabled = false
		return err
	}
	return nil
}

// Enabled returns whether audit logging is active.
func Enabled() bool {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return enabled
}

// Log writes an audit event to the global writer.
func Log(event *Event) error {
	globalMu.RLock()
	w := globalWriter
	globalMu.RUnlock()

	return w.Write(event)
}

// MustLog writes an audit event and returns an error suitable for
// failing the parent operation if audit logging fails.
func MustLog(event *Event) error {
	if err := Log(event); err != nil {
		return fmt.Errorf("audit log failed: %w", err)
	}
	return nil
}

// LogKeyGenerated logs a key generation event.
func LogKeyGenerated(keyid, keytype, scheme, path string, success bool) error {
	result := ResultSuccess
	if !success {
		result = ResultFailure
	}

	return Log(NewEvent(EventKeyGenerated, result).
		WithObject(Object{Type: "key", KeyID: keyid, Path: path}).
		WithContext(Context{KeyType: keytype, Scheme: scheme}))
}

// LogKeyImported logs a key import event.
func LogKeyImported(keyid, keytype, scheme, path string, success bool) error {
	result := ResultSuccess
	if !success {
		result = ResultFailure
	}

	return Log(NewEvent(EventKeyImported, result).
		WithObject(Object{Type: "key", KeyID: keyid, Path: path}).
		WithContext(Context{KeyType: keytype, Scheme: scheme}))
}

// LogDataSigned logs a signing event.
func LogDataSigned(keyid, scheme, backend string, success bool) error {
	result := ResultSuccess
	if !success {
		result = ResultFailure
	}

	return Log(NewEvent(EventDataSigned, result).
		WithObject(Object{Type: "signature", KeyID: keyid}).
		WithContext(Context{Scheme: scheme, Backend: backend}))
}

// LogSigVerified logs a verification event with its outcome.
func LogSigVerified(keyid, scheme string, verified bool) error {
	return Log(NewEvent(EventSigVerified, ResultSuccess).
		WithObject(Object{Type: "signature", KeyID: keyid}).
		WithContext(Context{Scheme: scheme, Verified: verified}))
}

// LogAuthFailed logs a failed decryption or passphrase check.
func LogAuthFailed(path, reason string) error {
	return Log(NewEvent(EventAuthFailed, ResultFailure).
		WithObject(Object{Type: "key", Path: path}).
		WithContext(Context{Reason: reason}))
}
