// Package transfer uploads and copies large objects to object-storage
// backends whose APIs cap the size of a single write or copy.
//
// A transfer below the backend's limits is sent with one atomic call. Larger
// transfers are split into parts and sent through the backend's multipart
// protocol: initiate a session, upload or copy each part in order, then
// complete. Any failure aborts the session, so either the fully assembled
// object becomes visible or nothing is left behind.
//
// Key features:
//   - Streaming uploads with bounded memory, including streams of unknown length
//   - Server-side copy of objects larger than the single-copy limit
//   - Pluggable backends: S3, MinIO and an in-memory store for tests
//   - Structured logging, Prometheus metrics and OpenTelemetry spans
//
// Example usage:
//
//	b, err := backend.Open(ctx, backend.Config{Type: "s3", Region: "us-east-1"})
//	if err != nil {
//	    return err
//	}
//
//	client, err := transfer.New(b, transfer.WithUploadPartSize(16<<20))
//	if err != nil {
//	    return err
//	}
//
//	result, err := client.SaveFile(ctx, xfertypes.Target{Container: "my-bucket", Key: "backups/db.tar"}, "/var/backups/db.tar")
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("Stored %d bytes in %d parts\n", result.Size, result.Parts)
package transfer
