package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/NagoLazaro/ClaraGenomicsAnalysis/config"
	"github.com/NagoLazaro/ClaraGenomicsAnalysis/internal/device"
	"github.com/NagoLazaro/ClaraGenomicsAnalysis/internal/index"
	"github.com/NagoLazaro/ClaraGenomicsAnalysis/internal/mapper"
)

var mapQueryPath string
var mapTargetPath string

// mapCmd represents the map command
var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Generate candidate overlap anchors between two FASTA files",
	Long: `Index the query and target files by seed fingerprint and emit one
anchor per pair of matching fingerprints, as tab-separated
(query, query position, target, target position, weight) rows.

Anchors are grouped by query sequence and query position ascending. When
query and target are the same file one shared index is used and identity
self-matches are excluded.`,
	// bound per-command so sibling commands sharing a key don't clobber it
	PreRun: func(cmd *cobra.Command, args []string) {
		viper.BindPFlag("kmer-size", cmd.Flags().Lookup("kmer-size"))
		viper.BindPFlag("device", cmd.Flags().Lookup("device"))
		viper.BindPFlag("max-memory", cmd.Flags().Lookup("max-memory"))
	},
	Run: runMap,
}

func init() {
	rootCmd.AddCommand(mapCmd)

	mapCmd.Flags().StringVarP(&mapQueryPath, "query", "q", "", "path to the query FASTA/FASTQ file")
	mapCmd.Flags().StringVarP(&mapTargetPath, "target", "t", "", "path to the target FASTA/FASTQ file")
	mapCmd.Flags().IntP("kmer-size", "k", 15, "seed fingerprint k-mer size")
	mapCmd.Flags().Int("device", 0, "device to run on")
	mapCmd.Flags().String("max-memory", "1GiB", "device memory budget for the anchor collection")

	mapCmd.MarkFlagRequired("query")
	mapCmd.MarkFlagRequired("target")
}

func runMap(cmd *cobra.Command, args []string) {
	c := config.New()

	qNames, qSeqs, err := readFasta(mapQueryPath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	query, err := index.FromSequences(qNames, qSeqs, c.Seed.K)
	if err != nil {
		log.Fatalf("indexing %s: %v", mapQueryPath, err)
	}
	log.Debugf("query index: %d sequences, %d seeds", query.NumRecords(), query.NumSeeds())

	// a shared index keeps identity self-matches out of an all-vs-all run
	target := query
	if mapTargetPath != mapQueryPath {
		tNames, tSeqs, err := readFasta(mapTargetPath)
		if err != nil {
			log.Fatalf("%v", err)
		}
		if target, err = index.FromSequences(tNames, tSeqs, c.Seed.K); err != nil {
			log.Fatalf("indexing %s: %v", mapTargetPath, err)
		}
	}
	log.Debugf("target index: %d sequences, %d seeds", target.NumRecords(), target.NumSeeds())

	dev := device.New(c.Device)
	stream := dev.NewStream()
	defer stream.Close()
	arena := device.NewArena(c.MemoryBytes())

	m, err := mapper.NewMatcher(stream, arena, query, target)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if err := stream.Sync(); err != nil {
		log.Fatalf("anchor generation with a %s budget: %v", humanize.IBytes(uint64(arena.Budget())), err)
	}

	anchors := m.Anchors()
	log.Infof("%d anchors, %s reserved", len(anchors), humanize.IBytes(uint64(arena.Used())))

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()
	qRecords, tRecords := query.Records(), target.Records()
	for _, a := range anchors {
		fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%d\n",
			qRecords[a.QuerySeq].Name, a.QueryPos,
			tRecords[a.TargetSeq].Name, a.TargetPos, a.Weight)
	}
}
