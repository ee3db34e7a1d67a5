package transcriptionmock

//go:generate mockgen --destination=transcription.mock.go --package=transcriptionmock github.com/sprucehealth/mediaindexer/libs/transcription Service
