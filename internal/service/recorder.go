package service

// Recorder receives pipeline measurements. *metrics.Metrics satisfies it.
type Recorder interface {
	RecordRecovery(source string)
	RecordPages(pages int)
	RecordUpload(err error)
	RecordAnchor(mode string, err error)
}

type noopRecorder struct{}

func (noopRecorder) RecordRecovery(string) {}
func (noopRecorder) RecordPages(int) {}
func (noopRecorder) RecordUpload(error) {}
func (noopRecorder) RecordAnchor(string, error) {}

func recorderOrNoop(r Recorder) Recorder {
	if r == nil {
		return noopRecorder{}
	}
	return r
}
