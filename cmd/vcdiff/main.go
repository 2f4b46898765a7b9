package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	vcdiff "github.com/deltastream/vcdiff-go"
)

var log = logrus.New()

var rootCmd = &cobra.Command{
	Use:   "vcdiff",
	Short: "VCDIFF delta applier",
	Long: `A command-line tool for applying VCDIFF (RFC 3284) delta files,
including the 'S'-version interleaved/checksum extension.`,
	Version: "2.0.0",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Error("vcdiff failed")
		os.Exit(1)
	}
}

var verbose bool

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(applyCmd)
}

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a VCDIFF delta to a source document",
	Long: `Apply a VCDIFF delta to a source document to produce the target document.

The source document is read in full and held in memory as the dictionary;
the delta is streamed through in fixed-size chunks so arbitrarily large
deltas never need to be buffered whole.`,
	Example: `  vcdiff apply -s old.txt -d patch.vcdiff -o new.txt
  vcdiff apply -s old.txt -d patch.vcdiff  # output to stdout`,
	RunE: runApply,
}

var (
	applySourceFile string
	applyDeltaFile  string
	applyOutputFile string
	applyChunkSize  int
	applyMaxTarget  uint32
)

func init() {
	applyCmd.Flags().StringVarP(&applySourceFile, "source", "s", "", "path to source document file")
	applyCmd.Flags().StringVarP(&applyDeltaFile, "delta", "d", "", "path to VCDIFF delta file")
	applyCmd.Flags().StringVarP(&applyOutputFile, "output", "o", "", "path to output file (default: stdout)")
	applyCmd.Flags().IntVar(&applyChunkSize, "chunk-size", 64*1024, "bytes of delta fed to the decoder per read")
	applyCmd.Flags().Uint32Var(&applyMaxTarget, "max-target-size", 0, "reject deltas producing more than this many target bytes (0: use the library default)")

	applyCmd.MarkFlagRequired("source")
	applyCmd.MarkFlagRequired("delta")
}

func runApply(cmd *cobra.Command, args []string) error {
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	sourceData, err := os.ReadFile(applySourceFile)
	if err != nil {
		return fmt.Errorf("reading source file: %w", err)
	}
	deltaFile, err := os.Open(applyDeltaFile)
	if err != nil {
		return fmt.Errorf("opening delta file: %w", err)
	}
	defer deltaFile.Close()

	log.WithFields(logrus.Fields{
		"source": applySourceFile,
		"delta":  applyDeltaFile,
	}).Debug("starting decode")

	var opts []vcdiff.Option
	if applyMaxTarget > 0 {
		opts = append(opts, vcdiff.WithMaxTargetFileSize(applyMaxTarget))
	}

	decoder := vcdiff.NewStreamingDecoder(opts...)
	if err := decoder.Start(sourceData); err != nil {
		return fmt.Errorf("starting decoder: %w", err)
	}

	var output = os.Stdout
	if applyOutputFile != "" {
		f, err := os.Create(applyOutputFile)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		output = f
	}
	sink := vcdiff.WriterSink{W: output}

	chunk := make([]byte, applyChunkSize)
	total := 0
	for {
		n, readErr := deltaFile.Read(chunk)
		if n > 0 {
			if err := decoder.DecodeChunk(chunk[:n], sink); err != nil {
				return fmt.Errorf("decoding chunk at offset %d: %w", total, err)
			}
			total += n
		}
		if readErr != nil {
			break
		}
	}

	if err := decoder.Finish(); err != nil {
		return fmt.Errorf("finishing decode: %w", err)
	}

	log.WithField("bytes_read", total).Debug("decode complete")
	return nil
}
