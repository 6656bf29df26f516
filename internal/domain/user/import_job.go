package user

type ImportJob struct {
	ID            string
	SourcePath    string
	RootAccountID string
	BatchID       string
	Status        string
	Attempts      int
	MaxAttempts   int
}

type ImportRequest struct {
	SourcePath    string
	RootAccountID string
	BatchID       string
}

type ImportProgress struct {
	ProcessedCount int64
}

type ImportSummary struct {
	ProcessedCount int64
	UsersCount     int64
	Errors         []string
	Warnings       []string
}
