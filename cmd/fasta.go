package cmd

import (
	"fmt"
	"io"

	"github.com/shenwei356/bio/seqio/fastx"
)

// readFasta reads every record of a FASTA/FASTQ file into memory. The
// pipeline stages downstream are in-process consumers, so sequences are
// copied out of the reader's buffers
func readFasta(file string) (names []string, seqs [][]byte, err error) {
	reader, err := fastx.NewReader(nil, file, "")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read seq file: %w", err)
	}
	defer reader.Close()

	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, nil, fmt.Errorf("read record %d in %s: %w", len(names), file, err)
		}
		names = append(names, string(record.Name))
		seqs = append(seqs, append([]byte(nil), record.Seq.Seq...))
	}
	if len(names) == 0 {
		return nil, nil, fmt.Errorf("no sequences in %s", file)
	}
	return names, seqs, nil
}
