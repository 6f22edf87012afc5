// Package domain contains the journal's entities: dream and life-event
// entries, the connections linking them, and the export document. It holds
// validation and normalization rules and knows nothing about storage or
// transport.
package domain
