package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/lectern-app/lectern/core"
)

// Key prefixes for different data types
const (
	documentRecordPrefix = "docrec"
	documentOwnerPrefix  = "docown"
	documentIDSeq        = "docrecseq"
	chunkRecordPrefix    = "chkrec"
	chunkIDSeq           = "chkrecseq"
	jobRecordPrefix      = "jobrec"
	jobPendingPrefix     = "jobpnd"
	jobLeasePrefix       = "joblse"
	jobSeq               = "jobseq"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentRecordPrefix, id))
}

// makeDocumentOwnerKey generates a composite key for the owner index.
// Format: prefix:ownerID\x00createdAt:id
// The NUL byte terminates the variable-length owner so one owner's
// entries never prefix-match another's.
func makeDocumentOwnerKey(ownerID string, createdAt time.Time, id core.ID) []byte {
	prefix := documentOwnerPrefix + ":" + ownerID + "\x00"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 16 // 8 bytes for timestamp + 8 bytes for ID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(createdAt.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialDocumentOwnerKey generates the scan prefix for one owner's
// document index entries.
func makePartialDocumentOwnerKey(ownerID string) []byte {
	return []byte(documentOwnerPrefix + ":" + ownerID + "\x00")
}

// makeChunkKey generates a composite key for a chunk record.
// Format: prefix:documentID:index
// Keys for one document sort by chunk index, so a prefix scan yields
// the document's chunks in index order.
func makeChunkKey(documentID core.ID, index int) []byte {
	prefix := chunkRecordPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 16 // 8 bytes for documentID + 8 bytes for index
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(index))
	return buf
}

// makePartialChunkKey generates the scan prefix for one document's chunks.
func makePartialChunkKey(documentID core.ID) []byte {
	prefix := chunkRecordPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	return buf
}

// makeJobKey generates a key for a job record by ID.
func makeJobKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", jobRecordPrefix, id))
}

// makeJobPendingKey generates a composite key for the pending index.
// Format: prefix:invPriority:readyAt:seq
// Priority is stored inverted (255 - priority) so ascending iteration
// visits the highest priority first; within a priority, earliest
// ready-time first; within a ready-time, enqueue order (FIFO).
func makeJobPendingKey(priority core.Priority, readyAt time.Time, seq uint64) []byte {
	prefix := jobPendingPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 17 // 1 byte priority + 8 bytes readyAt + 8 bytes seq
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	buf[offset] = 255 - uint8(priority)
	offset++
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(readyAt.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], seq)
	return buf
}

// pendingKeyReadyAt extracts the ready-time back out of a pending index key.
func pendingKeyReadyAt(key []byte) (time.Time, bool) {
	prefixSize := len(jobPendingPrefix) + 1
	if len(key) != prefixSize+17 {
		return time.Time{}, false
	}
	micros := binary.BigEndian.Uint64(key[prefixSize+1:])
	return time.UnixMicro(int64(micros)).UTC(), true
}

// makeJobLeaseKey generates a composite key for the lease-deadline index.
// Format: prefix:expiry:jobID
// Ascending iteration visits the earliest-expiring lease first, so the
// stalled-job sweep can stop at the first unexpired entry.
func makeJobLeaseKey(expiry time.Time, id core.ID) []byte {
	prefix := jobLeasePrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 16 // 8 bytes for expiry + 8 bytes for ID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(expiry.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// leaseKeyExpiry extracts the expiry time back out of a lease index key.
func leaseKeyExpiry(key []byte) (time.Time, bool) {
	prefixSize := len(jobLeasePrefix) + 1
	if len(key) != prefixSize+16 {
		return time.Time{}, false
	}
	micros := binary.BigEndian.Uint64(key[prefixSize:])
	return time.UnixMicro(int64(micros)).UTC(), true
}
