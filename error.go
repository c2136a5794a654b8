package hal

// ValidationError is returned when a link is constructed without one of its required attributes.
// It is the only error the model itself produces.
type ValidationError struct {
	// The missing attribute, either "rel" or "href".
	Attribute string
}

func (err *ValidationError) Error() string {
	return err.Attribute + " required"
}
