package s3

import (
	"crypto/md5"
	"encoding/base64"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

// encryption holds the request fields derived from one SSEConfig. A nil
// config gives the zero value, which leaves every field unset.
type encryption struct {
	mode     awstypes.ServerSideEncryption
	kmsKeyID *string

	// SSE-C fields, repeated on every request that reads or writes the data
	algorithm *string
	key       *string
	keyMD5    *string
}

func encryptionFor(sse *xfertypes.SSEConfig) encryption {
	var e encryption
	if sse == nil {
		return e
	}

	switch sse.Type {
	case xfertypes.SSES3:
		e.mode = awstypes.ServerSideEncryptionAes256
	case xfertypes.SSEKMS:
		e.mode = awstypes.ServerSideEncryptionAwsKms
		if sse.KMSKeyID != "" {
			e.kmsKeyID = aws.String(sse.KMSKeyID)
		}
	case xfertypes.SSEC:
		sum := md5.Sum(sse.CustomerKey)
		e.algorithm = aws.String("AES256")
		e.key = aws.String(base64.StdEncoding.EncodeToString(sse.CustomerKey))
		e.keyMD5 = aws.String(base64.StdEncoding.EncodeToString(sum[:]))
	}
	return e
}

func (e encryption) applyCreate(in *s3.CreateMultipartUploadInput) {
	in.ServerSideEncryption, in.SSEKMSKeyId = e.mode, e.kmsKeyID
	in.SSECustomerAlgorithm, in.SSECustomerKey, in.SSECustomerKeyMD5 = e.algorithm, e.key, e.keyMD5
}

func (e encryption) applyPut(in *s3.PutObjectInput) {
	in.ServerSideEncryption, in.SSEKMSKeyId = e.mode, e.kmsKeyID
	in.SSECustomerAlgorithm, in.SSECustomerKey, in.SSECustomerKeyMD5 = e.algorithm, e.key, e.keyMD5
}

func (e encryption) applyCopy(in *s3.CopyObjectInput) {
	in.ServerSideEncryption, in.SSEKMSKeyId = e.mode, e.kmsKeyID
	in.SSECustomerAlgorithm, in.SSECustomerKey, in.SSECustomerKeyMD5 = e.algorithm, e.key, e.keyMD5
}

// Parts inherit the session's encryption; only SSE-C keys are resent.
func (e encryption) applyUploadPart(in *s3.UploadPartInput) {
	in.SSECustomerAlgorithm, in.SSECustomerKey, in.SSECustomerKeyMD5 = e.algorithm, e.key, e.keyMD5
}

func (e encryption) applyUploadPartCopy(in *s3.UploadPartCopyInput) {
	in.SSECustomerAlgorithm, in.SSECustomerKey, in.SSECustomerKeyMD5 = e.algorithm, e.key, e.keyMD5
}

func (e encryption) applyHead(in *s3.HeadObjectInput) {
	in.SSECustomerAlgorithm, in.SSECustomerKey, in.SSECustomerKeyMD5 = e.algorithm, e.key, e.keyMD5
}

// Copy sources encrypted with SSE-S3 or KMS are decrypted by S3; an SSE-C
// source needs its key sent in the copy-source headers.
func (e encryption) applyCopySource(in *s3.CopyObjectInput) {
	in.CopySourceSSECustomerAlgorithm = e.algorithm
	in.CopySourceSSECustomerKey = e.key
	in.CopySourceSSECustomerKeyMD5 = e.keyMD5
}

func (e encryption) applyPartCopySource(in *s3.UploadPartCopyInput) {
	in.CopySourceSSECustomerAlgorithm = e.algorithm
	in.CopySourceSSECustomerKey = e.key
	in.CopySourceSSECustomerKeyMD5 = e.keyMD5
}
