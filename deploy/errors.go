package deploy

import "errors"

var (
	// ErrUnknownProvider is returned by Build for a name nobody registered.
	ErrUnknownProvider = errors.New("deploy: unknown provider")

	// ErrProviderUnavailable is returned when the provider's tooling or
	// credentials are missing or rejected. No record is attempted.
	ErrProviderUnavailable = errors.New("deploy: provider unavailable")

	// ErrDeployFailed is returned when at least one record could not be added.
	ErrDeployFailed = errors.New("deploy: one or more records failed")
)
