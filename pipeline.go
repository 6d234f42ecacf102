package mcastlog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

func NewPipeline(name string, options PipelineOptions) *Pipeline {
	if options.Schema == SchemaNotDefined {
		options.Schema = SchemaECS
	}
	var p Pipeline
	p.opts = options
	p.Name = name

	p.Filter("default @timestamp", func(event *Event, inject chan<- Event, drop func()) error {
		event.Field(PathTimestamp...).Default(time.Now().Format(time.RFC3339Nano))
		return nil
	})

	if p.opts.MarkIngestionTime {
		var path []string
		if options.Schema == SchemaECS {
			path = []string{"event", "ingested"}
		} else {
			path = []string{"ingested"}
		}

		p.Filter("mark ingestion time", func(event *Event, inject chan<- Event, drop func()) error {
			event.Field(path...).Default(time.Now().Format(time.RFC3339Nano))
			return nil
		})
	}

	return &p
}

type Pipeline struct {
	Name    string
	inputs  []NamedEntity[inputDetail]
	filters []NamedEntity[FilterPlugin]
	outputs []NamedEntity[OutputPlugin]
	opts    PipelineOptions

	mu   sync.Mutex
	stop context.CancelFunc
}

type PipelineOptions struct {
	MarkIngestionTime bool
	Schema            SchemaModel
}

type inputDetail struct {
	plugin      InputPlugin
	filterChain []NamedEntity[FilterPlugin]
}

func (p *Pipeline) GetName() string {
	return p.Name
}

const ChanBufferSize = 2

// Run blocks until every input has finished and its events have reached
// all outputs, or until ctx is cancelled or Stop is called.
func (p *Pipeline) Run(ctx context.Context) error {
	if len(p.outputs) == 0 {
		return fmt.Errorf("pipeline %s has no outputs", p.Name)
	}
	if len(p.inputs) == 0 {
		return fmt.Errorf("pipeline %s has no inputs", p.Name)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	p.mu.Lock()
	p.stop = cancel
	p.mu.Unlock()
	ctx = context.WithValue(ctx, ContextKeyPipelineName, p.GetName())
	ctx = context.WithValue(ctx, ContextKeySchema, p.opts.Schema)
	log := ContextLogger(ctx)

	// all inputs are multiplexed to a single input channel
	combinedInputs := make(chan Event, ChanBufferSize)

	// set up outputs first, then filters, then inputs LAST!
	var outputs sync.WaitGroup
	outChans := p.runOutputs(ctx, &outputs)

	log.Debug("preparing filter chain")
	filtered := RunFilterChain(ctx, p.filters, combinedInputs)
	go fanOut(ctx, filtered, outChans)
	log.Info(fmt.Sprintf("set up %d filters", len(p.filters)))

	p.runInputs(ctx, combinedInputs)

	outputs.Wait()
	p.closeOutputs(log)
	log.Info("stopped pipeline")
	return nil
}

func (p *Pipeline) Stop() {
	slog.Default().With("pipeline", p.GetName()).Info("pipeline stop requested")
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil {
		p.stop()
	}
}

func (p *Pipeline) runInputs(ctx context.Context, combinedInputs chan<- Event) {
	var forwarders sync.WaitGroup
	for _, entity := range p.inputs {
		plugin := entity.Value.plugin
		inputCtx := context.WithValue(ctx, ContextKeyPluginName, entity.Name)
		log := ContextLogger(inputCtx)

		inChan := make(chan Event, ChanBufferSize)
		tail := RunFilterChain(inputCtx, entity.Value.filterChain, inChan)

		forwarders.Add(1)
		go func() {
			defer forwarders.Done()
			for {
				select {
				case evt, more := <-tail:
					if !more {
						return
					}
					select {
					case combinedInputs <- evt:
					case <-ctx.Done():
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}()

		log.Info("starting input")
		go func() {
			defer close(inChan)
			err := plugin.Run(inputCtx, func(events ...Event) BatchResult {
				result := BatchResult{Total: len(events), Ok: true, Start: time.Now()}
				for _, event := range events {
					select {
					case inChan <- event:
						result.Success++
					case <-ctx.Done():
						result.Dropped++
						result.Ok = false
					}
				}
				result.Finish = time.Now()
				return result
			})
			if err == nil {
				log.Info("input stopped")
			} else {
				log.Error("input failed", "error", err)
			}
		}()
	}

	go func() {
		forwarders.Wait()
		close(combinedInputs)
	}()
}

func (p *Pipeline) runOutputs(ctx context.Context, wg *sync.WaitGroup) []chan Event {
	outputChannels := make([]chan Event, len(p.outputs))
	for i, namedOutput := range p.outputs {
		outputChannels[i] = make(chan Event, 1)
		outputCtx := context.WithValue(ctx, ContextKeyPluginName, namedOutput.Name)
		log := ContextLogger(outputCtx)
		output := namedOutput.Value
		soloChan := outputChannels[i]

		log.Info("starting output")
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case outEvt, more := <-soloChan:
					if !more {
						return
					}
					if err := output.Run(outputCtx, outEvt); err != nil {
						log.Error("output failed", "error", err)
					}
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	return outputChannels
}

func (p *Pipeline) closeOutputs(log *slog.Logger) {
	for _, namedOutput := range p.outputs {
		if closer, ok := namedOutput.Value.(Closer); ok {
			log.Debug("closing output", "plugin", namedOutput.Name)
			closer.Close()
		}
	}
}

// every output gets its own deep copy of the event
func fanOut(ctx context.Context, events <-chan Event, outputs []chan Event) {
	defer func() {
		for _, ch := range outputs {
			close(ch)
		}
	}()
	for {
		select {
		case event, more := <-events:
			if !more {
				return
			}
			for _, ch := range outputs {
				select {
				case ch <- event.Copy():
				case <-ctx.Done():
					return
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

func (p *Pipeline) Input(name string, plugin InputPlugin, filters ...NamedEntity[FilterPlugin]) {
	p.inputs = append(p.inputs, NamedEntity[inputDetail]{
		Name: name,
		Value: inputDetail{
			plugin:      plugin,
			filterChain: filters,
		},
	})
}

func (p *Pipeline) Filter(name string, f FilterPlugin) {
	p.filters = append(p.filters, NamedEntity[FilterPlugin]{
		Name:  name,
		Value: f,
	})
}

func (p *Pipeline) Output(name string, f OutputPlugin) {
	p.outputs = append(p.outputs, NamedEntity[OutputPlugin]{
		Name:  name,
		Value: f,
	})
}

// RunFilterChain starts one goroutine per filter and returns the tail of the chain.
// The tail is closed after origin is closed and drained.
func RunFilterChain(ctx context.Context, filters []NamedEntity[FilterPlugin], origin <-chan Event) <-chan Event {
	current := origin
	for _, filter := range filters {
		next := make(chan Event, ChanBufferSize)
		go pumpFilter(ctx, filter, current, next)
		current = next
	}
	return current
}

func pumpFilter(ctx context.Context, filter NamedEntity[FilterPlugin], input <-chan Event, output chan<- Event) {
	log := ContextLogger(ctx).With("filter", filter.Name)
	defer close(output)
	for {
		select {
		case event, more := <-input:
			if !more {
				return
			}
			dropped := false
			dropFunc := func() {
				if dropped {
					log.Warn("drop() should only be called once")
				} else {
					dropped = true
				}
			}
			if err := filter.Value(&event, output, dropFunc); err != nil {
				// failing filters do not stop the event
				log.Warn("filter error", "error", err)
			} else if dropped {
				continue
			}
			select {
			case output <- event:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
