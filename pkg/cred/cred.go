// Package cred resolves the key, secret, region and endpoint used to reach
// the object store for a bucket.
//
// Resolution walks a fixed precedence chain and stops at the first source
// that yields both a key id and a key secret:
//
//  1. <PREFIX>_BUCKET_<bucket>_{KEY_ID,KEY_SECRET,REGION,ENDPOINT}
//  2. with a profile: <PREFIX>_PROFILE_<profile>_{...}, then the AWS
//     credentials/config files
//  3. AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY, AWS_DEFAULT_REGION, AWS_ENDPOINT
//
// '-' in bucket and profile names is replaced by '_' in variable names.
package cred

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-ini/ini"
	"github.com/rs/zerolog"

	"example.com/ss3/pkg/errs"
)

// DefaultEnvPrefix is the <PREFIX> of the bucket and profile variables.
const DefaultEnvPrefix = "SS3"

const (
	envAccessKeyID     = "AWS_ACCESS_KEY_ID"
	envSecretAccessKey = "AWS_SECRET_ACCESS_KEY"
	envDefaultRegion   = "AWS_DEFAULT_REGION"
	envRegion          = "AWS_REGION"
	envEndpoint        = "AWS_ENDPOINT"
	envEndpointURL     = "AWS_ENDPOINT_URL"
	envCredentialsFile = "AWS_SHARED_CREDENTIALS_FILE"
	envConfigFile      = "AWS_CONFIG_FILE"
)

// Credential is consumed once to build a store client and then dropped.
type Credential struct {
	KeyID     string
	KeySecret string
	Region    string
	Endpoint  string
	// Source names where the credential came from, for diagnostics.
	Source string
}

// String never prints the secret.
func (c Credential) String() string {
	return fmt.Sprintf("Credential{source=%s region=%q endpoint=%q}", c.Source, c.Region, c.Endpoint)
}

// Validate rejects a credential the store client cannot be built from.
func (c Credential) Validate() error {
	if c.Region == "" && c.Endpoint == "" {
		return errs.New(errs.KindConfiguration,
			"Missing config. The credential environment variables or config must have either a REGION or ENDPOINT. Both absent.")
	}
	return nil
}

// Request carries the per-invocation inputs of a resolution.
type Request struct {
	// Bucket may be empty, e.g. when listing buckets.
	Bucket string
	// Profile is optional; it enables step 2 of the chain.
	Profile string
	// Region overrides whatever region the chain resolved.
	Region string
}

// Resolver walks the credential chain.
type Resolver struct {
	// EnvPrefix defaults to DefaultEnvPrefix.
	EnvPrefix string
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
	// CredentialsFile and ConfigFile override the AWS shared file locations.
	CredentialsFile string
	ConfigFile      string
	Logger          zerolog.Logger
}

// NewResolver returns a Resolver reading the process environment.
func NewResolver(prefix string, logger zerolog.Logger) *Resolver {
	return &Resolver{EnvPrefix: prefix, Logger: logger}
}

// Resolve returns the first credential found along the chain, with the
// request region applied on top.
func (r *Resolver) Resolve(req Request) (Credential, error) {
	var (
		cred Credential
		ok   bool
	)
	if req.Bucket != "" {
		cred, ok = r.fromScopedEnv(scopeBucket, req.Bucket)
	}
	if !ok && req.Profile != "" {
		cred, ok = r.fromScopedEnv(scopeProfile, req.Profile)
		if !ok {
			cred, ok = r.fromProfileFiles(req.Profile)
		}
	}
	if !ok {
		cred, ok = r.fromDefaultEnv()
	}
	if !ok {
		return Credential{}, r.noCredentials(req.Bucket)
	}
	if req.Region != "" {
		cred.Region = req.Region
	}
	r.Logger.Debug().Str("source", cred.Source).Str("bucket", req.Bucket).Msg("credentials resolved")
	return cred, nil
}

type scope string

const (
	scopeBucket  scope = "BUCKET"
	scopeProfile scope = "PROFILE"
)

func (r *Resolver) prefix() string {
	if r.EnvPrefix == "" {
		return DefaultEnvPrefix
	}
	return r.EnvPrefix
}

// EnvName builds a scoped variable name such as SS3_BUCKET_my_bucket_KEY_ID.
func EnvName(prefix string, s scope, name, part string) string {
	return fmt.Sprintf("%s_%s_%s_%s", prefix, s, strings.ReplaceAll(name, "-", "_"), part)
}

func (r *Resolver) env(name string) (string, bool) {
	lookup := r.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	v, ok := lookup(name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (r *Resolver) fromScopedEnv(s scope, name string) (Credential, bool) {
	p := r.prefix()
	id, ok := r.env(EnvName(p, s, name, "KEY_ID"))
	if !ok {
		return Credential{}, false
	}
	secret, ok := r.env(EnvName(p, s, name, "KEY_SECRET"))
	if !ok {
		return Credential{}, false
	}
	region, _ := r.env(EnvName(p, s, name, "REGION"))
	endpoint, _ := r.env(EnvName(p, s, name, "ENDPOINT"))
	return Credential{
		KeyID:     id,
		KeySecret: secret,
		Region:    region,
		Endpoint:  endpoint,
		Source:    fmt.Sprintf("%s_%s_%s env", p, s, name),
	}, true
}

func (r *Resolver) fromDefaultEnv() (Credential, bool) {
	id, ok := r.env(envAccessKeyID)
	if !ok {
		return Credential{}, false
	}
	secret, ok := r.env(envSecretAccessKey)
	if !ok {
		return Credential{}, false
	}
	region, ok := r.env(envDefaultRegion)
	if !ok {
		region, _ = r.env(envRegion)
	}
	endpoint, ok := r.env(envEndpoint)
	if !ok {
		endpoint, _ = r.env(envEndpointURL)
	}
	return Credential{
		KeyID:     id,
		KeySecret: secret,
		Region:    region,
		Endpoint:  endpoint,
		Source:    "default AWS env",
	}, true
}

// fromProfileFiles reads the profile from the config file first and lets the
// credentials file override it, the same layering the AWS CLI uses.
func (r *Resolver) fromProfileFiles(profile string) (Credential, bool) {
	values := map[string]string{}
	configSections := []string{"profile " + profile}
	if profile == "default" {
		configSections = append(configSections, "default")
	}
	mergeSections(values, r.sharedFile(r.ConfigFile, envConfigFile, "config"), configSections...)
	mergeSections(values, r.sharedFile(r.CredentialsFile, envCredentialsFile, "credentials"), profile)

	id, secret := values["aws_access_key_id"], values["aws_secret_access_key"]
	if id == "" || secret == "" {
		return Credential{}, false
	}
	endpoint := values["endpoint"]
	if endpoint == "" {
		endpoint = values["endpoint_url"]
	}
	return Credential{
		KeyID:     id,
		KeySecret: secret,
		Region:    values["region"],
		Endpoint:  endpoint,
		Source:    fmt.Sprintf("profile %s", profile),
	}, true
}

func (r *Resolver) sharedFile(explicit, envName, base string) string {
	if explicit != "" {
		return explicit
	}
	if v, ok := r.env(envName); ok {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".aws", base)
}

var profileKeys = []string{"aws_access_key_id", "aws_secret_access_key", "region", "endpoint", "endpoint_url"}

func mergeSections(dst map[string]string, path string, sections ...string) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	f, err := ini.Load(path)
	if err != nil {
		return
	}
	for _, name := range sections {
		sec, err := f.GetSection(name)
		if err != nil {
			continue
		}
		for _, k := range profileKeys {
			if sec.HasKey(k) {
				if v := strings.TrimSpace(sec.Key(k).String()); v != "" {
					dst[k] = v
				}
			}
		}
	}
}

func (r *Resolver) noCredentials(bucket string) error {
	p := r.prefix()
	name := bucket
	if name == "" {
		name = "<none>"
	}
	msg := fmt.Sprintf(`No credential found for bucket '%s'. Provide the following (by order of precedence):
  - Provide bucket %[2]s_BUCKET_... environments (will take precedence on profile env/configs)
    - %[2]s_BUCKET_bucket_name_KEY_ID
    - %[2]s_BUCKET_bucket_name_KEY_SECRET
    - %[2]s_BUCKET_bucket_name_REGION
    - %[2]s_BUCKET_bucket_name_ENDPOINT (optional)
  - Provide '--profile profile_name' with the following %[2]s_PROFILE_... environments:
    - %[2]s_PROFILE_profile_name_KEY_ID
    - %[2]s_PROFILE_profile_name_KEY_SECRET
    - %[2]s_PROFILE_profile_name_REGION
    - %[2]s_PROFILE_profile_name_ENDPOINT (optional)
  - Provide '--profile profile_name' which should be configured in the aws credentials/config files
    (aws_access_key_id, aws_secret_access_key, region, endpoint)
  - As a last fallback, use the default AWS environment variables:
    - AWS_ACCESS_KEY_ID
    - AWS_SECRET_ACCESS_KEY
    - AWS_DEFAULT_REGION
    - AWS_ENDPOINT (optional)
  NOTE: '-' characters in profile and bucket names will be replaced by '_' for environment names above.`, name, p)
	return errs.New(errs.KindConfiguration, msg)
}
