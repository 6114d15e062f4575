package schemasync

// Step names the stage a synchronisation reached.
type Step string

const (
	StepNormalize   Step = "normalize"
	StepRemoteWrite Step = "remote_write"
	StepLocalWrite  Step = "local_write"
	StepDone        Step = "done"
)

// Result is the outcome of one synchronisation.
// Err is nil on success; otherwise Step is where it failed.
type Result struct {
	DeviceID string
	Step     Step
	Err      error
}

// OK reports whether every step succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Notification is the schema.updated wire payload.
type Notification struct {
	ID    string  `json:"id"`
	Error *string `json:"error"`
}

// Notification converts the result to its wire form. Only the error message
// crosses this boundary.
func (r Result) Notification() Notification {
	n := Notification{ID: r.DeviceID}
	if r.Err != nil {
		msg := r.Err.Error()
		n.Error = &msg
	}
	return n
}
