package concurrent

// PresignJobItem asks for a presigned image URL for one case.
type PresignJobItem struct {
	CaseID   string
	ImageKey string
}

// PresignResult pairs the case back up with its signed URL.
type PresignResult struct {
	CaseID string
	URL    string
}

type JobI interface {
	PresignJobItem | string
}

type Job[T JobI] struct {
	ID      int
	JobItem T
}

type JobFunc[T JobI, G any] func(job T) G
