package util

// WaitError waits for either an error on the error channel or the done channel to close.
// Returns the error if one is received, otherwise nil.
//
// An error thrown right before done closes is still returned: both channels can be
// ready when the scheduler resumes this goroutine, and the error must win.
func WaitError(errChan <-chan error, done <-chan struct{}) error {
	select {
	case err := <-errChan:
		return err
	case <-done:
		select {
		case err := <-errChan:
			return err
		default:
		}
		return nil
	}
}
