// Package tulip is a safe Go handle on the Tulip VM exposed by libtulip.
//
// The library holds one global VM whose lifecycle is
//
//	Uninitialized -> Initialized -> (Executing)* -> Freed
//
// Open performs the only initialization, Close the only teardown, and every
// execution call in between runs on a single OS thread. Use With to get the
// teardown on every exit path:
//
//	lib, err := abi.Native()
//	if err != nil {
//		return err
//	}
//	return tulip.With(lib, os.Args, func(v *tulip.VM) error {
//		value, err := v.InterpretWithResult("1 + 2;", "<test>")
//		if err != nil {
//			return err
//		}
//		fmt.Println("Last value:", value)
//		return nil
//	})
//
// Execution failures are returned as *ExitError; the status codes
// themselves are defined by the VM.
package tulip
