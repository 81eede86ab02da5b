package core

// DatasourceStatus reports whether the backend can reach its store.
type DatasourceStatus struct {
	OK     bool     `json:"is_ok"`
	Errors []string `json:"errors,omitempty"`
}

// StatusOK returns a healthy status.
func StatusOK() DatasourceStatus {
	return DatasourceStatus{OK: true}
}

// StatusError returns an unhealthy status carrying the given messages.
func StatusError(errs ...string) DatasourceStatus {
	return DatasourceStatus{OK: false, Errors: errs}
}
