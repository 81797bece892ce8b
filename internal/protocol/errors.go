package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest    = "E_PROTO_BAD_REQUEST"
	ErrUnsupportedVersion = "E_UNSUPPORTED_VERSION"

	// Log intake.
	ErrParseRejected = "E_PARSE_REJECTED"
	ErrExportFailed  = "E_EXPORT_FAILED"

	// Query layer.
	ErrGameNotFound = "E_GAME_NOT_FOUND"

	ErrInternal = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest:    {},
	ErrUnsupportedVersion: {},
	ErrParseRejected:      {},
	ErrExportFailed:       {},
	ErrGameNotFound:       {},
	ErrInternal:           {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
