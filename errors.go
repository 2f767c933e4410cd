package negcache

import "errors"

var (
	// ErrMalformedName is returned internally when a name fails wire-format validation
	// (over 255 octets, a label over 63 octets, or an unparsable escape sequence). It
	// never escapes AddReply/AddReferral: ingest is fire-and-forget.
	ErrMalformedName = errors.New("malformed domain name")

	// ErrNoZoneDetermined is returned internally when a reply carries no SOA in its
	// authority section and no bailiwick was supplied, so no zone can be derived.
	ErrNoZoneDetermined = errors.New("unable to determine the applicable zone for this reply")

	// ErrNSEC3IterationsExceedCap means the reply's NSEC3PARAM exceeds nsec3_max_iter.
	// The record, and the whole ingest operation, is silently discarded.
	ErrNSEC3IterationsExceedCap = errors.New("nsec3 iteration count exceeds configured maximum")

	// ErrResourceExhausted marks an allocation failure during message assembly in
	// GetMessage. It's the only error GetMessage's tri-valued result ever surfaces.
	ErrResourceExhausted = errors.New("unable to assemble synthesized reply")

	// ErrCacheClosed names the state of a cache after Close. No public operation
	// returns it: on a closed cache, ingest does nothing and GetMessage and
	// DLVLookup report no proof.
	ErrCacheClosed = errors.New("cache has been closed")
)
