package converter

import (
	"sync"

	"imgconv/contracts"
)

// BatchResult pairs one input with its conversion outcome.
type BatchResult struct {
	File   contracts.FileInfo
	Result contracts.ConvertResult
	Err    error
}

type batchTask struct {
	index int
	file  contracts.FileInfo
}

type batchOutcome struct {
	index  int
	result contracts.ConvertResult
	err    error
}

// ConvertBatch converts files to target with up to workers conversions
// in flight. Results come back in input order; failed conversions carry
// their error and no handle.
func (c *Converter) ConvertBatch(files []contracts.FileInfo, target contracts.Format, workers int) []BatchResult {
	if workers < 1 {
		workers = 1
	}

	taskChan := make(chan batchTask)
	resultChan := make(chan batchOutcome, len(files))

	wg := &sync.WaitGroup{}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range taskChan {
				result, err := c.Convert(task.file, target)
				resultChan <- batchOutcome{index: task.index, result: result, err: err}
			}
		}()
	}

	for i, file := range files {
		taskChan <- batchTask{index: i, file: file}
	}
	close(taskChan)

	wg.Wait()
	close(resultChan)

	results := make([]BatchResult, len(files))
	for i, file := range files {
		results[i].File = file
	}
	for outcome := range resultChan {
		results[outcome.index].Result = outcome.result
		results[outcome.index].Err = outcome.err
	}
	return results
}
