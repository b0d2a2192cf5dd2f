package source

import "testing"

func TestNewS3Dataset(t *testing.T) {
	ds, err := New(Config{
		Kind: "S3",
		S3: S3Config{
			Endpoint:  "localhost:9000",
			Bucket:    "ops",
			Key:       "infra/dataset.csv",
			AccessKey: "minio",
			SecretKey: "minio123",
		},
	}, Columns{}, EvaluationColumns{})
	if err != nil {
		t.Fatalf("new s3 dataset: %v", err)
	}
	if ds.Name() != "s3:ops/infra/dataset.csv" {
		t.Fatalf("unexpected name %s", ds.Name())
	}

	if _, err := New(Config{Kind: "s3", S3: S3Config{Bucket: "ops"}}, Columns{}, EvaluationColumns{}); err == nil {
		t.Fatalf("expected validation error without endpoint and key")
	}
}
