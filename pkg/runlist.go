package gaindrift

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
)

func RunListFilename(channel, startRun, endRun int) string {
	return fmt.Sprintf("accepted_Runs_Ch%d_%d_%d.txt", channel, startRun, endRun)
}

// ReadRunList reads the first count run numbers of a whitespace separated
// list, keeping the order of the file.
func ReadRunList(filename string, count int) ([]int, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, &InputListError{Filename: filename, Err: err}
	}
	defer file.Close()

	runs := make([]int, 0, count)
	scanner := bufio.NewScanner(file)
	scanner.Split(bufio.ScanWords)
	for len(runs) < count && scanner.Scan() {
		run, err := strconv.Atoi(scanner.Text())
		if err != nil {
			return nil, &InputListError{Filename: filename, Err: fmt.Errorf("entry %d: %w", len(runs), err)}
		}
		runs = append(runs, run)
	}
	if err := scanner.Err(); err != nil {
		return nil, &InputListError{Filename: filename, Err: err}
	}
	if len(runs) < count {
		err := fmt.Errorf("%w: found %d, expected %d", ErrShortRunList, len(runs), count)
		return nil, &InputListError{Filename: filename, Err: err}
	}

	if len(runs) > 0 {
		message := fmt.Sprintf("Read %d runs from %s (first %d, last %d)", len(runs), filename, runs[0], runs[len(runs)-1])
		logger.Info(message, "runlist")
	}
	return runs, nil
}
