package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/NagoLazaro/ClaraGenomicsAnalysis/config"
	"github.com/NagoLazaro/ClaraGenomicsAnalysis/internal/device"
	"github.com/NagoLazaro/ClaraGenomicsAnalysis/internal/poa"
)

var conInputPath string
var conGroupSize int
var conMSA bool

// consensusCmd represents the consensus command
var consensusCmd = &cobra.Command{
	Use:   "consensus",
	Short: "Call consensus sequences for groups of related reads",
	Long: `Partition the input records into groups of consecutive reads and call
one consensus per group with batched partial-order alignment. Groups are
packed into a batch until its memory budget is spent, then the batch is
executed, drained and reset for the next chunk of work.

Consensus sequences are written as FASTA to stdout; with --msa each group's
multiple-sequence-alignment rows follow its consensus record.`,
	// bound per-command so sibling commands sharing a key don't clobber it
	PreRun: func(cmd *cobra.Command, args []string) {
		for _, f := range []string{"device", "max-memory", "match", "mismatch", "gap",
			"banded", "band-width", "max-sequences", "max-length"} {
			viper.BindPFlag(f, cmd.Flags().Lookup(f))
		}
	},
	Run: runConsensus,
}

func init() {
	rootCmd.AddCommand(consensusCmd)

	consensusCmd.Flags().StringVarP(&conInputPath, "input", "i", "", "path to the reads FASTA/FASTQ file")
	consensusCmd.Flags().IntVarP(&conGroupSize, "group-size", "g", 3, "reads per consensus group")
	consensusCmd.Flags().BoolVar(&conMSA, "msa", false, "also output each group's alignment rows")
	consensusCmd.Flags().Int("device", 0, "device to run on")
	consensusCmd.Flags().String("max-memory", "512MiB", "device memory budget per batch")
	consensusCmd.Flags().Int("match", 8, "match score")
	consensusCmd.Flags().Int("mismatch", -6, "mismatch penalty")
	consensusCmd.Flags().Int("gap", -8, "gap penalty")
	consensusCmd.Flags().Bool("banded", false, "restrict alignment to a diagonal band")
	consensusCmd.Flags().Int("band-width", 256, "corridor width in banded mode")
	consensusCmd.Flags().Int("max-sequences", 16, "maximum reads per group")
	consensusCmd.Flags().Int("max-length", 1024, "maximum read length")

	consensusCmd.MarkFlagRequired("input")
}

func runConsensus(cmd *cobra.Command, args []string) {
	c := config.New()

	names, seqs, err := readFasta(conInputPath)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if conGroupSize < 1 {
		log.Fatalf("group-size %d: need at least one read per group", conGroupSize)
	}
	var groups [][][]byte
	for i := 0; i < len(seqs); i += conGroupSize {
		end := i + conGroupSize
		if end > len(seqs) {
			end = len(seqs)
		}
		groups = append(groups, seqs[i:end])
	}

	size := poa.BatchSize{
		MaxSequences: int32(c.Align.MaxSequences),
		MaxSeqLen:    int32(c.Align.MaxSeqLen),
		BandWidth:    int32(c.Align.BandWidth),
	}
	outputs := poa.OutputConsensus
	if conMSA {
		outputs |= poa.OutputMSA
	}

	log.Debugf("budget fits %d problems per batch",
		poa.ProblemsPerBatch(c.MemoryBytes(), size, int16(c.Align.Gap), int16(c.Align.Mismatch), int16(c.Align.Match), c.Align.Banded))

	dev := device.New(c.Device)
	stream := dev.NewStream()
	defer stream.Close()

	batch, err := poa.NewBatch(dev, stream, c.MemoryBytes(), outputs, size,
		int16(c.Align.Gap), int16(c.Align.Mismatch), int16(c.Align.Match), c.Align.Banded)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer batch.Close()
	log.Debugf("batch running with %d-bit scores", batch.ScoreWidth())

	pbs := mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))
	bar := pbs.AddBar(int64(len(groups)),
		mpb.PrependDecorators(
			decor.Name("consensus groups: "),
			decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(decor.Percentage()),
	)

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()

	// groups admitted to the current batch, by original group number
	var pending []int

	flush := func() {
		if len(pending) == 0 {
			return
		}
		if err := batch.Execute(); err != nil {
			log.Fatalf("%v", err)
		}
		if err := batch.Sync(); err != nil {
			log.Fatalf("batch execution: %v", err)
		}
		results, err := batch.Results()
		if err != nil {
			log.Fatalf("%v", err)
		}
		for i, r := range results {
			writeResult(w, pending[i], names[pending[i]*conGroupSize], r)
			bar.Increment()
		}
		if err := batch.Reset(); err != nil {
			log.Fatalf("%v", err)
		}
		pending = pending[:0]
	}

	for gi, group := range groups {
		err := batch.AddProblem(group, poa.ProblemConfig{})
		if errors.Is(err, poa.ErrBatchFull) {
			flush()
			err = batch.AddProblem(group, poa.ProblemConfig{})
		}
		switch {
		case err == nil:
			pending = append(pending, gi)
		case errors.Is(err, poa.ErrCapacity), errors.Is(err, poa.ErrInput):
			log.Warnf("skipping group %d: %v", gi, err)
			bar.Increment()
		default:
			log.Fatalf("group %d: %v", gi, err)
		}
	}
	flush()
	pbs.Wait()
}

// writeResult prints one group's outputs: the consensus record named after
// the group's first read, then the MSA rows when present
func writeResult(w *bufio.Writer, group int, firstRead string, r poa.Result) {
	if r.Status != poa.StatusSuccess {
		log.Warnf("group %d: %v", group, r.Status)
		return
	}
	if r.Consensus != nil {
		fmt.Fprintf(w, ">consensus_%d %s\n%s\n", group, firstRead, r.Consensus)
	}
	for i, row := range r.MSA {
		fmt.Fprintf(w, ">msa_%d_row_%d\n%s\n", group, i, row)
	}
}
