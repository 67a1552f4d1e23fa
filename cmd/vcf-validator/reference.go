package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/vcf-validator/internal/reference"
)

// assemblyURLs maps a genome assembly name to the default reference FASTA
// to fetch when the caller doesn't pass --url explicitly.
var assemblyURLs = map[string]string{
	"GRCh38": "https://ftp.ensembl.org/pub/release-110/fasta/homo_sapiens/dna/Homo_sapiens.GRCh38.dna.primary_assembly.fa.gz",
	"GRCh37": "https://ftp.ensembl.org/pub/grch37/release-110/fasta/homo_sapiens/dna/Homo_sapiens.GRCh37.dna.primary_assembly.fa.gz",
}

func newReferenceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reference",
		Short: "Fetch and index reference FASTA files used by the optional reference-sequence checks",
	}
	cmd.AddCommand(newReferenceFetchCmd())
	cmd.AddCommand(newReferenceIndexCmd())
	return cmd
}

func newReferenceFetchCmd() *cobra.Command {
	var (
		assembly string
		url      string
		destDir  string
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download a reference FASTA file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if assembly == "" {
				assembly = viper.GetString("reference.assembly")
			}
			if assembly == "" {
				assembly = "GRCh38"
			}
			if destDir == "" {
				destDir = viper.GetString("reference.cache-dir")
			}
			if destDir == "" {
				home, err := os.UserHomeDir()
				if err != nil {
					return runError(fmt.Errorf("cannot determine home directory: %w", err))
				}
				destDir = filepath.Join(home, ".vcf-validator", "reference")
			}
			if url == "" {
				u, ok := assemblyURLs[assembly]
				if !ok {
					return usageError(fmt.Errorf("unknown assembly %q; pass --url explicitly", assembly))
				}
				url = u
			}

			if err := os.MkdirAll(destDir, 0o755); err != nil {
				return runError(fmt.Errorf("create cache directory: %w", err))
			}
			destPath := filepath.Join(destDir, filepath.Base(url))

			fmt.Printf("Fetching %s reference into %s\n", assembly, destPath)
			fetcher := reference.NewFetcher()
			lastPrint := time.Now()
			err := fetcher.Fetch(url, destPath, func(downloaded, total int64) {
				if time.Since(lastPrint) < time.Second {
					return
				}
				lastPrint = time.Now()
				if total > 0 {
					fmt.Printf("\r  %s / %s (%.1f%%)  ", formatSize(downloaded), formatSize(total), float64(downloaded)/float64(total)*100)
				} else {
					fmt.Printf("\r  %s  ", formatSize(downloaded))
				}
			})
			fmt.Println()
			if err != nil {
				return runError(fmt.Errorf("fetch reference: %w", err))
			}
			fmt.Printf("Done: %s\n", destPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&assembly, "assembly", "", "Genome assembly (GRCh37 or GRCh38; default from config, else GRCh38)")
	cmd.Flags().StringVar(&url, "url", "", "Override the reference FASTA URL")
	cmd.Flags().StringVar(&destDir, "cache-dir", "", "Directory to store the downloaded file (default from config, else ~/.vcf-validator/reference)")

	return cmd
}

func newReferenceIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index <fasta-file>",
		Short: "Build and print the on-the-fly contig index for a FASTA file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider := reference.NewFASTAProvider(args[0])
			if err := provider.Load(); err != nil {
				return runError(fmt.Errorf("load FASTA file: %w", err))
			}
			defer provider.Close()

			contigs := provider.Contigs()
			if len(contigs) == 0 {
				fmt.Println("No contigs found.")
				return nil
			}
			for _, name := range contigs {
				fmt.Printf("%s\t%d\n", name, provider.ContigLength(name))
			}
			return nil
		},
	}
	return cmd
}

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
