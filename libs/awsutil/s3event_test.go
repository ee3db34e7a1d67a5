package awsutil

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/sprucehealth/mediaindexer/libs/test"
)

const s3EventJSON = `{"Records":[{"eventName":"ObjectCreated:Put","awsRegion":"us-east-1","s3":{"bucket":{"name":"media"},"object":{"key":"uploads/my+talk%281%29.mp4","size":1024,"eTag":"d41d8cd98f00b204e9800998ecf8427e"}}}]}`

func TestParseS3Event(t *testing.T) {
	ev, err := ParseS3Event([]byte(s3EventJSON))
	test.OK(t, err)
	test.Equals(t, 1, len(ev.Records))
	r := ev.Records[0]
	test.Equals(t, "media", r.Bucket())
	test.Equals(t, "uploads/my talk(1).mp4", r.Key())
	test.Equals(t, "d41d8cd98f00b204e9800998ecf8427e", r.ETag())
	test.Equals(t, "us-east-1", r.AWSRegion)
}

func TestParseS3EventWrappedInSNS(t *testing.T) {
	for _, inner := range []string{s3EventJSON, base64.StdEncoding.EncodeToString([]byte(s3EventJSON))} {
		body, err := json.Marshal(&SNSSQSMessage{Type: "Notification", MessageID: "1", Message: inner})
		test.OK(t, err)
		ev, err := ParseS3Event(body)
		test.OK(t, err)
		test.Equals(t, 1, len(ev.Records))
		test.Equals(t, "media", ev.Records[0].Bucket())
	}
}

func TestParseS3TestEvent(t *testing.T) {
	ev, err := ParseS3Event([]byte(`{"Service":"Amazon S3","Event":"s3:TestEvent","Bucket":"media"}`))
	test.OK(t, err)
	test.Equals(t, "s3:TestEvent", ev.Event)
	test.Equals(t, 0, len(ev.Records))
}

func TestParseS3EventInvalid(t *testing.T) {
	_, err := ParseS3Event([]byte(`not json`))
	test.Assert(t, err != nil, "Expected an error")
}

func TestUnwrapSNSPassthrough(t *testing.T) {
	body := []byte(`{"kind":"TranscriptionJob"}`)
	test.Equals(t, body, UnwrapSNS(body))
}
