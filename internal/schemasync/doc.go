// Package schemasync propagates a device's schema from the connector to the
// remote schema authority and then to the local device store.
//
// A synchronisation is strictly sequential:
//
//	Start -> Normalizing -> RemoteWriting -> LocalWriting -> NotifySuccess
//	           \______________\_______________\___________-> NotifyFailure
//
// The remote authority is the source of truth and gates the local write: if
// it fails, the store is never touched. If the remote write succeeds and the
// local write fails, the remote change stays in place and the failure is
// reported. Exactly one schema.updated notification is published per call,
// carrying {"id": ..., "error": null} on success or the message of the first
// failure.
//
// Failures in the three steps are absorbed into the notification. The only
// error Synchronize returns is a failure to publish that notification.
//
// The Consumer decodes inbound schema.update bus messages and feeds them to an
// Orchestrator.
package schemasync
