package share

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smbdfs/smbd/cmd/smbdctl/cmdutil"
	"github.com/smbdfs/smbd/internal/cli/prompt"
	"github.com/smbdfs/smbd/internal/registry"
)

var (
	createName       string
	createPath       string
	createBackend    string
	createGuest      bool
	createPermission string
	createAllowHosts string
	createDenyHosts  string
	createInvalid    string
	createReadList   string
	createWriteList  string
	createS3Bucket   string
	createS3Prefix   string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create or replace a share",
	Long: `Create a share, or replace an existing one with the same name.

The backend defaults to the server's configured default backend kind
(backend.kind in the config file); pass --backend to override per
share. S3 shares inherit bucket/region/endpoint from the config file's
backend.s3 section unless overridden with --s3-bucket/--s3-prefix.

Examples:
  smbdctl share create --name docs --path /srv/docs
  smbdctl share create --name archive --backend s3 --s3-bucket my-bucket --s3-prefix archive/`,
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringVarP(&createName, "name", "n", "", "share name (required)")
	createCmd.Flags().StringVar(&createPath, "path", "", "share root path (required for local backend)")
	createCmd.Flags().StringVar(&createBackend, "backend", "", "backend kind: local or s3 (default: from config)")
	createCmd.Flags().BoolVar(&createGuest, "guest", false, "allow guest (unauthenticated) access")
	createCmd.Flags().StringVar(&createPermission, "permission", "rw", "default permission: rw or ro")
	createCmd.Flags().StringVar(&createAllowHosts, "allow-hosts", "", "comma-separated allowed host/CIDR list")
	createCmd.Flags().StringVar(&createDenyHosts, "deny-hosts", "", "comma-separated denied host/CIDR list")
	createCmd.Flags().StringVar(&createInvalid, "invalid-users", "", "comma-separated users denied this share")
	createCmd.Flags().StringVar(&createReadList, "read-list", "", "comma-separated users granted read-only access")
	createCmd.Flags().StringVar(&createWriteList, "write-list", "", "comma-separated users granted write access")
	createCmd.Flags().StringVar(&createS3Bucket, "s3-bucket", "", "S3 bucket (s3 backend only, default: from config)")
	createCmd.Flags().StringVar(&createS3Prefix, "s3-prefix", "", "S3 key prefix (s3 backend only)")
}

func runCreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	name := createName
	var err error
	if name == "" {
		name, err = prompt.InputRequired("Share name")
		if err != nil {
			return cmdutil.HandleAbort(err)
		}
	}

	reg, cfg, err := openRegistry(ctx)
	if err != nil {
		return err
	}

	backendKind := createBackend
	if backendKind == "" {
		backendKind = cfg.Backend.Kind
	}

	sharePath := createPath
	var backendConfig any
	switch backendKind {
	case "local":
		if sharePath == "" {
			sharePath, err = prompt.InputRequired("Path")
			if err != nil {
				return cmdutil.HandleAbort(err)
			}
		}
		lcfg := cfg.ToLocalBackendConfig()
		lcfg.BasePath = sharePath
		backendConfig = lcfg
	case "s3":
		scfg := cfg.ToS3BackendConfig()
		if createS3Bucket != "" {
			scfg.Bucket = createS3Bucket
		}
		if createS3Prefix != "" {
			scfg.KeyPrefix = createS3Prefix
		}
		if scfg.Bucket == "" {
			return fmt.Errorf("s3 backend requires --s3-bucket or backend.s3.bucket in config")
		}
		backendConfig = scfg
	default:
		return fmt.Errorf("unknown backend kind %q (want local or s3)", backendKind)
	}

	s := &registry.Share{
		Name:              name,
		Path:              sharePath,
		AllowGuest:        createGuest,
		DefaultPermission: createPermission,
		AllowHosts:        cmdutil.ParseCommaSeparatedList(createAllowHosts),
		DenyHosts:         cmdutil.ParseCommaSeparatedList(createDenyHosts),
		InvalidUsers:      cmdutil.ParseCommaSeparatedList(createInvalid),
		ReadList:          cmdutil.ParseCommaSeparatedList(createReadList),
		WriteList:         cmdutil.ParseCommaSeparatedList(createWriteList),
	}

	if err := reg.PutShare(ctx, s, backendKind, backendConfig); err != nil {
		return fmt.Errorf("failed to create share: %w", err)
	}

	fmt.Printf("Share %q created.\n", name)
	return nil
}
