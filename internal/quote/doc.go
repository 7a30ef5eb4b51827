// Package quote fetches bitcoin exchange rates from the CoinGecko simple
// price API.
//
// # Client Usage
//
//	client, err := quote.NewClient("", quote.WithMinInterval(2*time.Second))
//	if err != nil {
//		return err
//	}
//	rates, err := client.FetchRates(ctx)
//
// # Errors
//
// Every failure wraps one of the package sentinels so callers can tell them
// apart with errors.Is:
//
//   - ErrNetwork: the request never produced a response
//   - ErrStatus: the endpoint answered with a non-2xx status
//   - ErrParse: the body was not JSON or lacked a positive rate/timestamp
//   - ErrThrottled: the refresh came sooner than the configured interval
//
// A failed fetch never yields a partial RateSet. The client does not retry;
// the user refreshes explicitly.
package quote
