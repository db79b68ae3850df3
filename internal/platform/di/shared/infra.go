package shared

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"cloud.google.com/go/storage"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	appcfg "shoporia/internal/infra/config"
)

// Secret Manager secret ids used when the corresponding env value is empty.
const (
	secretDatabaseURL = "shoporia-database-url"
	secretSendGridKey = "shoporia-sendgrid-api-key"
)

// Infra is shared runtime infrastructure for DI.
// - owns external clients (Firestore / Postgres / GCS / SecretManager)
// - owns env/config-resolved runtime settings (bucket names, mail sender)
//
// The storage backend selected by DB_DRIVER is strict; everything else is
// best-effort (warn + continue with the feature disabled).
type Infra struct {
	Config    *appcfg.Config
	ProjectID string

	// Clients (owned; Close-managed)
	Firestore     *firestore.Client
	DB            *sql.DB
	GCS           *storage.Client
	SecretManager *secretmanager.Client

	// Runtime settings (resolved once)
	ProductImageBucket string
	SendGridAPIKey     string
	MailFrom           string
}

// NewInfra initializes shared infra.
func NewInfra(ctx context.Context) (*Infra, error) {
	cfg := appcfg.Load()
	if cfg == nil {
		return nil, errors.New("shared.infra: config is nil")
	}

	inf := &Infra{
		Config:    cfg,
		ProjectID: strings.TrimSpace(cfg.FirestoreProjectID),

		ProductImageBucket: strings.TrimSpace(cfg.ProductImageBucket),
		SendGridAPIKey:     strings.TrimSpace(cfg.SendGridAPIKey),
		MailFrom:           strings.TrimSpace(cfg.MailFrom),
	}

	// Credentials file (optional; mainly for local dev)
	var clientOpts []option.ClientOption
	if credFile := strings.TrimSpace(cfg.FirestoreCredentialsFile); credFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(credFile))
		zap.S().Infow("[shared.infra] using credentials file for GCP clients")
	}

	// 1) Optional: Secret Manager (used to resolve missing secrets)
	{
		sm, err := secretmanager.NewClient(ctx, clientOpts...)
		if err != nil {
			zap.S().Warnw("[shared.infra] secretmanager.NewClient failed; secret fallbacks disabled", "err", err)
			sm = nil
		}
		inf.SecretManager = sm
	}

	// 2) Storage backend (strict for the selected driver)
	if cfg.UsesPostgres() {
		dsn := strings.TrimSpace(cfg.DatabaseURL)
		if dsn == "" {
			dsn = inf.accessSecret(ctx, secretDatabaseURL)
		}
		if dsn == "" {
			return nil, errors.New("shared.infra: DB_DRIVER=postgres but DATABASE_URL is empty")
		}
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("shared.infra: sql.Open failed: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("shared.infra: postgres ping failed: %w", err)
		}
		inf.DB = db
		zap.S().Infow("[shared.infra] postgres connected")
	} else {
		if inf.ProjectID == "" {
			return nil, errors.New("shared.infra: projectID is empty (set FIRESTORE_PROJECT_ID or GCP_PROJECT_ID)")
		}
		fsClient, err := firestore.NewClient(ctx, inf.ProjectID, clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("shared.infra: firestore.NewClient failed (project=%s): %w", inf.ProjectID, err)
		}
		inf.Firestore = fsClient
		zap.S().Infow("[shared.infra] firestore connected", "project", inf.ProjectID)
	}

	// 3) Optional: GCS (product images)
	{
		gcsClient, err := storage.NewClient(ctx, clientOpts...)
		if err != nil {
			zap.S().Warnw("[shared.infra] storage.NewClient failed; image uploads disabled", "err", err)
			gcsClient = nil
		}
		inf.GCS = gcsClient
	}
	if inf.ProductImageBucket == "" {
		zap.S().Warn("[shared.infra] PRODUCT_IMAGE_BUCKET is empty (image uploads disabled)")
	}

	// 4) Optional: SendGrid key via Secret Manager when env was empty
	if inf.SendGridAPIKey == "" {
		inf.SendGridAPIKey = inf.accessSecret(ctx, secretSendGridKey)
	}
	if inf.SendGridAPIKey == "" {
		zap.S().Warn("[shared.infra] SENDGRID_API_KEY is empty (outgoing mail disabled)")
	}

	return inf, nil
}

// accessSecret reads the latest version of a secret; empty on any failure.
func (i *Infra) accessSecret(ctx context.Context, secretID string) string {
	if i == nil || i.SecretManager == nil || i.ProjectID == "" {
		return ""
	}
	name := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", i.ProjectID, secretID)
	resp, err := i.SecretManager.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		zap.S().Warnw("[shared.infra] AccessSecretVersion failed", "secret", secretID, "err", err)
		return ""
	}
	return strings.TrimSpace(string(resp.GetPayload().GetData()))
}

func (i *Infra) Close() error {
	if i == nil {
		return nil
	}
	if i.Firestore != nil {
		_ = i.Firestore.Close()
	}
	if i.DB != nil {
		_ = i.DB.Close()
	}
	if i.GCS != nil {
		_ = i.GCS.Close()
	}
	if i.SecretManager != nil {
		_ = i.SecretManager.Close()
	}
	return nil
}
