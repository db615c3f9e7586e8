/*

Package deal implements a bilateral token escrow with a time gated release
policy.

A depositor opens a deal by locking an amount of tokens for a named
beneficiary. The tokens are held on a deal account derived from the deal
sequence id. For 72 hours after opening only the depositor can act: a return
moves the tokens back to the depositor. From the maturity instant on only
the beneficiary can act: a release pays the tokens out to the beneficiary.
The boundary instant belongs to the release path.

A deal is settled by exactly one of those two operations. Settled deals are
never deleted, the bucket keeps the full history and can be queried at any
time.

*/
package deal
