package domain

// TransformConfig carries the options every transform reads. It is built once
// by the host and never mutated while transforms run.
type TransformConfig struct {
	Repo RecordRepository

	// SourceName labels the platform in statement context.
	SourceName string
	// AppURL is the LMS base URL that every generated activity id starts with.
	AppURL string

	// SourceURL and SourceVersion identify the LMS release in the info extension.
	SourceURL     string
	SourceVersion string

	SendMbox                    bool
	SendUsername                bool
	SendShortCourseID           bool
	SendCourseAndModuleIDNumber bool
}
