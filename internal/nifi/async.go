package nifi

import (
	"context"
	"time"

	"github.com/stackoverflowed/nifimcp/internal/apperr"
	"github.com/stackoverflowed/nifimcp/internal/reqctx"
)

// pollInterval is how often async request status is re-checked. NiFi's own
// UI polls at a similar cadence; there's no server-side push for these
// sub-resources.
const pollInterval = 500 * time.Millisecond

// DropRequest tracks a connection flowfile-queue drop request through its
// create -> poll -> fetch -> delete lifecycle.
type DropRequest struct {
	ID       string `json:"id"`
	Finished bool   `json:"finished"`
	Current  string `json:"currentCount"`
	State    string `json:"state"`
}

type dropRequestEnvelope struct {
	DropRequest DropRequest `json:"dropRequest"`
}

// DropFlowFileQueue empties connectionID's flowfile queue: it creates a
// drop request, polls until NiFi reports it finished or timeout elapses
// (or ctx's ambient request deadline elapses, whichever comes first), and
// always attempts to delete the request afterward regardless of outcome
// (NiFi retains unfinished/uncompleted requests until explicitly deleted
// or its own internal expiry). timeout <= 0 polls zero times before
// giving up, so callers that pass 0 get an immediate timeout.
func (c *Client) DropFlowFileQueue(ctx context.Context, connectionID string, timeout time.Duration) (DropRequest, error) {
	ctx, span := c.tracer.Start(ctx, "nifi.drop_flowfile_queue")
	defer span.End()

	var created dropRequestEnvelope
	if err := c.doJSON(ctx, "POST", "/flowfile-queues/"+connectionID+"/drop-requests", nil, nil, &created); err != nil {
		return DropRequest{}, err
	}
	id := created.DropRequest.ID

	var last dropRequestEnvelope
	var pollErr error
	if timeout <= 0 {
		pollErr = apperr.Timeout("nifi: drop request %s not polled: timeout %s is not positive", id, timeout)
	} else {
		pollCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		_, pollErr = c.pollUntilFinished(pollCtx, func() (bool, string, error) {
			var env dropRequestEnvelope
			if err := c.doJSON(ctx, "GET", "/flowfile-queues/"+connectionID+"/drop-requests/"+id, nil, nil, &env); err != nil {
				return false, "", err
			}
			last = env
			return env.DropRequest.Finished, env.DropRequest.State, nil
		})
	}

	delErr := c.doJSON(ctx, "DELETE", "/flowfile-queues/"+connectionID+"/drop-requests/"+id, nil, nil, nil)
	_ = ignoreAlreadyGone(delErr)

	if pollErr != nil {
		return DropRequest{}, pollErr
	}
	return last.DropRequest, nil
}

// ListingRequest tracks a connection flowfile-listing request.
type ListingRequest struct {
	ID                string           `json:"id"`
	Finished          bool             `json:"finished"`
	FlowFileSummaries []map[string]any `json:"flowFileSummaries"`
}

type listingRequestEnvelope struct {
	ListingRequest ListingRequest `json:"listingRequest"`
}

// ListFlowFiles creates a flowfile-listing request against connectionID,
// polls until finished (or ctx's deadline elapses), always attempts to
// delete the request afterward, and returns the listed summaries.
func (c *Client) ListFlowFiles(ctx context.Context, connectionID string) ([]map[string]any, error) {
	ctx, span := c.tracer.Start(ctx, "nifi.list_flowfiles")
	defer span.End()

	var created listingRequestEnvelope
	if err := c.doJSON(ctx, "POST", "/flowfile-queues/"+connectionID+"/listing-requests", nil, nil, &created); err != nil {
		return nil, err
	}
	id := created.ListingRequest.ID

	var last listingRequestEnvelope
	_, pollErr := c.pollUntilFinished(ctx, func() (bool, string, error) {
		var env listingRequestEnvelope
		if err := c.doJSON(ctx, "GET", "/flowfile-queues/"+connectionID+"/listing-requests/"+id, nil, nil, &env); err != nil {
			return false, "", err
		}
		last = env
		state := "RUNNING"
		if env.ListingRequest.Finished {
			state = "COMPLETE"
		}
		return env.ListingRequest.Finished, state, nil
	})

	delErr := c.doJSON(ctx, "DELETE", "/flowfile-queues/"+connectionID+"/listing-requests/"+id, nil, nil, nil)
	_ = ignoreAlreadyGone(delErr)

	if pollErr != nil {
		return nil, pollErr
	}
	return last.ListingRequest.FlowFileSummaries, nil
}

// GetFlowFileEventDetails fetches the full provenance-event-style detail
// record for a single flowfile within a completed listing, by connection
// and flowfile id.
func (c *Client) GetFlowFileEventDetails(ctx context.Context, connectionID, flowFileUUID string) (map[string]any, error) {
	ctx, span := c.tracer.Start(ctx, "nifi.get_flowfile_event_details")
	defer span.End()

	var detail map[string]any
	path := "/flowfile-queues/" + connectionID + "/flowfiles/" + flowFileUUID
	if err := c.doJSON(ctx, "GET", path, nil, nil, &detail); err != nil {
		return nil, err
	}
	return detail, nil
}

// ProvenanceQuery is the minimal submission shape for a provenance search.
type ProvenanceQuery struct {
	ProcessorID string `json:"componentId,omitempty"`
	EventType   string `json:"eventType,omitempty"`
	StartDate   string `json:"startDate,omitempty"`
	EndDate     string `json:"endDate,omitempty"`
	MaxResults  int    `json:"maxResults,omitempty"`
}

type provenanceEnvelope struct {
	ProvenanceRequest struct {
		ID       string `json:"id"`
		Finished bool   `json:"finished"`
		Results  struct {
			ProvenanceEvents []map[string]any `json:"provenanceEvents"`
		} `json:"results"`
	} `json:"provenance"`
}

// QueryProvenance submits a provenance search, polls until finished (or
// ctx's deadline elapses), always attempts to delete the request
// afterward, and returns the matched events. No tool calls it:
// analyze_nifi_processor_errors reads the processor entity's bulletins
// instead.
func (c *Client) QueryProvenance(ctx context.Context, q ProvenanceQuery) ([]map[string]any, error) {
	ctx, span := c.tracer.Start(ctx, "nifi.query_provenance")
	defer span.End()

	body := map[string]any{"provenance": map[string]any{"request": q}}
	var created provenanceEnvelope
	if err := c.doJSON(ctx, "POST", "/provenance", nil, body, &created); err != nil {
		return nil, err
	}
	id := created.ProvenanceRequest.ID

	var last provenanceEnvelope
	_, pollErr := c.pollUntilFinished(ctx, func() (bool, string, error) {
		var env provenanceEnvelope
		if err := c.doJSON(ctx, "GET", "/provenance/"+id, nil, nil, &env); err != nil {
			return false, "", err
		}
		last = env
		state := "RUNNING"
		if env.ProvenanceRequest.Finished {
			state = "COMPLETE"
		}
		return env.ProvenanceRequest.Finished, state, nil
	})

	delErr := c.doJSON(ctx, "DELETE", "/provenance/"+id, nil, nil, nil)
	_ = ignoreAlreadyGone(delErr)

	if pollErr != nil {
		return nil, pollErr
	}
	return last.ProvenanceRequest.Results.ProvenanceEvents, nil
}

// pollUntilFinished repeatedly invokes check until it reports finished,
// returns an error, or ctx's request deadline (internal/reqctx) or
// cancellation fires first. The last observed state string is returned
// alongside any timeout error for diagnostic purposes.
func (c *Client) pollUntilFinished(ctx context.Context, check func() (finished bool, state string, err error)) (string, error) {
	for {
		finished, state, err := check()
		if err != nil {
			return state, err
		}
		if finished {
			return state, nil
		}
		if reqctx.Expired(ctx) {
			return state, apperr.Timeout("nifi: async request did not finish before the request deadline (last state: %s)", state)
		}

		timer := time.NewTimer(pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return state, apperr.Timeout("nifi: async request polling canceled (last state: %s)", state)
		case <-timer.C:
		}
	}
}
