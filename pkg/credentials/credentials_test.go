package credentials_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/larder/pkg/credentials"
)

var _ = Describe("Manager", func() {
	var (
		tmpDir string
		mgr    *credentials.Manager
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()

		var err error
		mgr, err = credentials.NewManager(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		mgr.SetLookupEnv(func(string) (string, bool) { return "", false })
	})

	Describe("NewManager", func() {
		It("targets credentials.toml in the override directory", func() {
			Expect(mgr.GetTarget()).To(Equal(filepath.Join(tmpDir, "credentials.toml")))
		})
	})

	Describe("Load", func() {
		It("returns empty credentials when no file exists", func() {
			creds, err := mgr.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(creds.Providers).To(BeEmpty())
		})

		It("loads existing credentials", func() {
			data := `version = 0

[providers.openrouter]
api_key = "sk-or-test"
`
			Expect(os.WriteFile(filepath.Join(tmpDir, "credentials.toml"), []byte(data), 0o600)).To(Succeed())

			creds, err := mgr.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(creds.Providers).To(HaveKeyWithValue("openrouter", credentials.ProviderCredential{APIKey: "sk-or-test"}))
		})

		It("returns error for malformed TOML", func() {
			Expect(os.WriteFile(filepath.Join(tmpDir, "credentials.toml"), []byte("not valid [[["), 0o600)).To(Succeed())

			creds, err := mgr.Load()
			Expect(err).To(HaveOccurred())
			Expect(creds).To(BeNil())
		})
	})

	Describe("Save", func() {
		It("persists credentials to disk with restricted permissions", func() {
			Expect(mgr.Save(&credentials.Credentials{
				Providers: map[string]credentials.ProviderCredential{
					"openrouter": {APIKey: "sk-or-test"},
				},
			})).To(Succeed())

			info, err := os.Stat(filepath.Join(tmpDir, "credentials.toml"))
			Expect(err).NotTo(HaveOccurred())
			Expect(info.Mode().Perm()).To(Equal(os.FileMode(0o600)))
		})

		It("returns error for nil credentials", func() {
			Expect(mgr.Save(nil)).NotTo(Succeed())
		})
	})

	Describe("SetKey, GetKey and RemoveKey", func() {
		It("round-trips keys per provider", func() {
			Expect(mgr.SetKey("openrouter", "sk-or-old")).To(Succeed())
			Expect(mgr.SetKey("openrouter", "sk-or-new")).To(Succeed())
			Expect(mgr.SetKey("huggingface", "hf-test")).To(Succeed())

			key, err := mgr.GetKey("openrouter")
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(Equal("sk-or-new"))

			Expect(mgr.RemoveKey("openrouter")).To(Succeed())

			key, err = mgr.GetKey("openrouter")
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(BeEmpty())

			key, err = mgr.GetKey("huggingface")
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(Equal("hf-test"))
		})

		It("treats removing a nonexistent provider as a no-op", func() {
			Expect(mgr.RemoveKey("nonexistent")).To(Succeed())
		})
	})

	Describe("ListProviders", func() {
		It("returns stored providers in sorted order", func() {
			Expect(mgr.SetKey("openrouter", "sk-1")).To(Succeed())
			Expect(mgr.SetKey("huggingface", "hf-2")).To(Succeed())

			providers, err := mgr.ListProviders()
			Expect(err).NotTo(HaveOccurred())
			Expect(providers).To(Equal([]string{"huggingface", "openrouter"}))
		})
	})

	Describe("Resolve", func() {
		It("reports no key when none is configured", func() {
			key, source, err := mgr.Resolve("openrouter")
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(BeEmpty())
			Expect(source).To(Equal(credentials.SourceNone))
		})

		It("reads the stored key", func() {
			Expect(mgr.SetKey("openrouter", "sk-file")).To(Succeed())

			key, source, err := mgr.Resolve("openrouter")
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(Equal("sk-file"))
			Expect(source).To(Equal(credentials.SourceFile))
		})

		It("prefers the environment variable", func() {
			Expect(mgr.SetKey("openrouter", "sk-file")).To(Succeed())
			mgr.SetLookupEnv(func(name string) (string, bool) {
				if name == "OPENROUTER_API_KEY" {
					return "sk-env", true
				}
				return "", false
			})

			key, source, err := mgr.Resolve("openrouter")
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(Equal("sk-env"))
			Expect(source).To(Equal(credentials.SourceEnv))
		})
	})
})

var _ = Describe("EnvVarForProvider", func() {
	DescribeTable("maps provider names to environment variables",
		func(provider, expected string) {
			Expect(credentials.EnvVarForProvider(provider)).To(Equal(expected))
		},
		Entry("openrouter", "openrouter", "OPENROUTER_API_KEY"),
		Entry("huggingface", "huggingface", "HUGGINGFACE_API_KEY"),
		Entry("unknown", "unknown", ""),
	)
})

var _ = Describe("IsSupportedProvider", func() {
	It("accepts only providers that need API keys", func() {
		Expect(credentials.SupportedProviders()).To(ConsistOf("openrouter", "huggingface"))
		Expect(credentials.IsSupportedProvider("openrouter")).To(BeTrue())
		Expect(credentials.IsSupportedProvider("openai")).To(BeFalse())
	})
})
