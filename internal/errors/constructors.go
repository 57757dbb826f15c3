package errors

// Convenience constructors for common error patterns

// CompileFailed reports a compiler invocation that exited non-zero or
// produced no artifact.
func CompileFailed(entrypoint string, cause error) *BuildError {
	return Wrap(cause, CategoryCompile, SeverityFatal, "compiler invocation failed").
		WithContext("entrypoint", entrypoint)
}

// ArtifactMissing reports a compiler run that exited zero but left no output
// file behind.
func ArtifactMissing(path string) *BuildError {
	return New(CategoryCompile, SeverityFatal, "expected compiled artifact missing").
		WithContext("path", path)
}

// TransformMarkerMissing reports a module transform whose input artifact does
// not contain the expected closing-invocation marker.
func TransformMarkerMissing(path, marker string) *BuildError {
	return New(CategoryTransform, SeverityFatal, "module transform marker not found in artifact").
		WithContext("path", path).
		WithContext("marker", marker)
}

// ProtocolViolation reports an unrecognized message tag on the renderer
// channel. This is a programming-contract breach, always fatal.
func ProtocolViolation(detail string) *BuildError {
	return New(CategoryProtocol, SeverityFatal, "renderer protocol violation").
		WithContext("detail", detail)
}

// PageError records a page-level failure reported by the renderer. It does
// not abort the run.
func PageError(details string) *BuildError {
	return New(CategoryPage, SeverityError, "renderer reported page errors").
		WithContext("details", details)
}

// ValidationFailed reports an invalid configuration field.
func ValidationFailed(field, reason string) *BuildError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}
