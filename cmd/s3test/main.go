package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/tendant/simple-articles/pkg/simplearticle"
	"github.com/tendant/simple-articles/pkg/simplearticle/storage/s3"
)

// Standalone utility for verifying S3/MinIO connectivity with the same
// backend the server uses for image blobs.
func main() {
	region := flag.String("region", "us-east-1", "AWS region")
	bucket := flag.String("bucket", "", "S3 bucket name")
	accessKey := flag.String("access-key", "", "AWS access key ID")
	secretKey := flag.String("secret-key", "", "AWS secret access key")
	endpoint := flag.String("endpoint", "", "Custom S3 endpoint (for MinIO, etc.)")
	usePathStyle := flag.Bool("use-path-style", false, "Use path-style addressing")
	presignDuration := flag.Int("presign-duration", 3600, "Duration in seconds for presigned URLs")
	createBucket := flag.Bool("create-bucket", false, "Create bucket if it doesn't exist")

	command := flag.String("command", "help", "Command to execute: upload, download, delete, url, help")
	objectKey := flag.String("key", "", "Object key for operations")
	filePath := flag.String("file", "", "File path for upload/download")

	useMinio := flag.Bool("use-minio", false, "Use MinIO defaults (sets endpoint, path-style, etc.)")
	minioEndpoint := flag.String("minio-endpoint", "http://localhost:9000", "MinIO server endpoint")

	flag.Parse()

	if *useMinio {
		*endpoint = *minioEndpoint
		*usePathStyle = true
		*createBucket = true
		if *accessKey == "" {
			*accessKey = "minioadmin"
		}
		if *secretKey == "" {
			*secretKey = "minioadmin"
		}
	}

	if *accessKey == "" {
		*accessKey = os.Getenv("AWS_ACCESS_KEY_ID")
	}
	if *secretKey == "" {
		*secretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	}

	if *command == "help" || *command == "" {
		printHelp()
		return
	}

	if *bucket == "" {
		log.Fatal("Bucket name is required")
	}

	config := s3.Config{
		Region:                 *region,
		Bucket:                 *bucket,
		AccessKeyID:            *accessKey,
		SecretAccessKey:        *secretKey,
		Endpoint:               *endpoint,
		UsePathStyle:           *usePathStyle,
		PresignDuration:        *presignDuration,
		CreateBucketIfNotExist: *createBucket,
	}

	fmt.Println("Initializing S3 backend with the following configuration:")
	fmt.Printf("  Region: %s\n", config.Region)
	fmt.Printf("  Bucket: %s\n", config.Bucket)
	fmt.Printf("  Endpoint: %s\n", config.Endpoint)
	fmt.Printf("  Use Path Style: %v\n", config.UsePathStyle)
	fmt.Printf("  Create Bucket If Not Exist: %v\n", config.CreateBucketIfNotExist)
	fmt.Println()

	backend, err := s3.New(config)
	if err != nil {
		log.Fatalf("Failed to initialize S3 backend: %v", err)
	}

	ctx := context.Background()

	switch strings.ToLower(*command) {
	case "upload":
		if *objectKey == "" || *filePath == "" {
			log.Fatal("Object key and file path are required for upload")
		}
		file, err := os.Open(*filePath)
		if err != nil {
			log.Fatalf("Failed to open file: %v", err)
		}
		defer file.Close()

		if err := backend.Upload(ctx, *objectKey, file); err != nil {
			log.Fatalf("Upload failed: %v", err)
		}
		fmt.Printf("Uploaded %s as %s\n", *filePath, *objectKey)

	case "download":
		if *objectKey == "" || *filePath == "" {
			log.Fatal("Object key and file path are required for download")
		}
		reader, err := backend.Download(ctx, *objectKey)
		if errors.Is(err, simplearticle.ErrBlobNotFound) {
			log.Fatalf("Object %s does not exist in bucket %s", *objectKey, *bucket)
		} else if err != nil {
			log.Fatalf("Download failed: %v", err)
		}
		defer reader.Close()

		out, err := os.Create(*filePath)
		if err != nil {
			log.Fatalf("Failed to create file: %v", err)
		}
		defer out.Close()

		n, err := io.Copy(out, reader)
		if err != nil {
			log.Fatalf("Failed to write file: %v", err)
		}
		fmt.Printf("Downloaded %s to %s (%d bytes)\n", *objectKey, *filePath, n)

	case "delete":
		if *objectKey == "" {
			log.Fatal("Object key is required for delete")
		}
		if err := backend.Delete(ctx, *objectKey); err != nil {
			log.Fatalf("Delete failed: %v", err)
		}
		fmt.Printf("Deleted %s\n", *objectKey)

	case "meta":
		if *objectKey == "" {
			log.Fatal("Object key is required for meta")
		}
		meta, err := backend.GetObjectMeta(ctx, *objectKey)
		if err != nil {
			log.Fatalf("Meta lookup failed: %v", err)
		}
		fmt.Printf("Key: %s\nSize: %d\nContent-Type: %s\nETag: %s\nUpdated: %s\n",
			meta.Key, meta.Size, meta.ContentType, meta.ETag, meta.UpdatedAt)

	case "url":
		if *objectKey == "" {
			log.Fatal("Object key is required for url")
		}
		url, err := backend.GetDownloadURL(ctx, *objectKey, "")
		if err != nil {
			log.Fatalf("Presign failed: %v", err)
		}
		fmt.Printf("Presigned URL: %s\n", url)

	default:
		log.Fatalf("Unknown command: %s", *command)
	}
}

func printHelp() {
	fmt.Println(`s3test - verify S3/MinIO connectivity for the image blob backend

Commands:
  upload    -key <object-key> -file <path>   Upload a file
  download  -key <object-key> -file <path>   Download an object to a file
  delete    -key <object-key>                Delete an object
  meta      -key <object-key>                Print object metadata
  url       -key <object-key>                Print a presigned download URL

Examples:
  s3test -use-minio -bucket articles -command upload -key test/cover.png -file ./cover.png
  s3test -bucket articles -region us-west-2 -command url -key test/cover.png`)
}
