package awsutil

import (
	"encoding/json"
	"net/url"

	"github.com/sprucehealth/mediaindexer/libs/errors"
)

// S3Event is the notification S3 sends for object events.
type S3Event struct {
	Records []*S3EventRecord `json:"Records"`
	// Event is set to "s3:TestEvent" on the message S3 sends when a notification is configured.
	Event string `json:"Event,omitempty"`
}

// S3EventRecord describes a single object event.
type S3EventRecord struct {
	EventName string `json:"eventName"`
	AWSRegion string `json:"awsRegion"`
	S3        struct {
		Bucket struct {
			Name string `json:"name"`
		} `json:"bucket"`
		Object struct {
			Key  string `json:"key"`
			Size int64  `json:"size"`
			ETag string `json:"eTag"`
		} `json:"object"`
	} `json:"s3"`
}

// Bucket returns the bucket name of the record.
func (r *S3EventRecord) Bucket() string {
	return r.S3.Bucket.Name
}

// Key returns the object key with the URL encoding S3 applies to notifications removed.
func (r *S3EventRecord) Key() string {
	k, err := url.QueryUnescape(r.S3.Object.Key)
	if err != nil {
		return r.S3.Object.Key
	}
	return k
}

// ETag returns the object's entity tag.
func (r *S3EventRecord) ETag() string {
	return r.S3.Object.ETag
}

// ParseS3Event decodes an S3 notification that arrived either directly on a queue or wrapped
// in an SNS notification. Test events decode to an event with no records.
func ParseS3Event(body []byte) (*S3Event, error) {
	var ev S3Event
	if err := json.Unmarshal(UnwrapSNS(body), &ev); err != nil {
		return nil, errors.Wrap(err, "failed to decode S3 event")
	}
	return &ev, nil
}
